package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/metrics"
	"github.com/go-authgate/login/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret"

func newTestLoginService(
	t *testing.T,
	store core.UserStore,
	providers *auth.ProviderSet,
) *services.LoginService {
	t.Helper()
	svc, err := services.NewLoginService(services.Options{
		Store:       store,
		Providers:   providers,
		TokenSecret: testSecret,
		Logger:      zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return svc
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	return data
}

func noopMetrics() core.Recorder {
	return metrics.NewNoopMetrics()
}
