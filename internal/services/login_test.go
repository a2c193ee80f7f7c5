package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/mocks"
	"github.com/go-authgate/login/internal/models"
	"github.com/go-authgate/login/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// returnUser is a DoAndReturn helper that echoes the stored user back,
// simulating a store that persists the record unchanged.
func returnUser(_ context.Context, u *models.User) (*models.User, error) {
	return u, nil
}

func newObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	zc, logs := observer.New(zap.InfoLevel)
	return zap.New(zc).Sugar(), logs
}

func newTestService(
	t *testing.T,
	s core.UserStore,
	providers *auth.ProviderSet,
) (*LoginService, *observer.ObservedLogs) {
	t.Helper()
	logger, logs := newObservedLogger()
	svc, err := NewLoginService(Options{
		Store:       s,
		Providers:   providers,
		TokenSecret: testSecret,
		Logger:      logger,
	})
	require.NoError(t, err)
	return svc, logs
}

func singleProvider(t *testing.T, p core.IdentityProvider) *auth.ProviderSet {
	t.Helper()
	set, err := auth.NewSingleProviderSet(p)
	require.NoError(t, err)
	return set
}

func TestNewLoginService_InvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	providers := singleProvider(t, mocks.NewMockIdentityProvider(ctrl))
	logger, _ := newObservedLogger()

	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "missing store",
			opts: Options{Providers: providers, TokenSecret: testSecret, Logger: logger},
		},
		{
			name: "missing providers",
			opts: Options{Store: mockStore, TokenSecret: testSecret, Logger: logger},
		},
		{
			name: "missing logger",
			opts: Options{Store: mockStore, Providers: providers, TokenSecret: testSecret},
		},
		{
			name: "missing secret",
			opts: Options{Store: mockStore, Providers: providers, Logger: logger},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewLoginService(tt.opts)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewLoginService_EmptyProviderList(t *testing.T) {
	// An empty list is rejected before any login can be attempted
	providers, err := auth.NewProviderSet()
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidProviderConfig)

	ctrl := gomock.NewController(t)
	logger, _ := newObservedLogger()
	svc, err := NewLoginService(Options{
		Store:       mocks.NewMockUserStore(ctrl),
		Providers:   providers,
		TokenSecret: testSecret,
		Logger:      logger,
	})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLogin_FirstLoginCreatesUser(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	mockProvider := mocks.NewMockIdentityProvider(ctrl)

	mockProvider.EXPECT().
		Authenticate(gomock.Any(), "alice", "secret").
		Return(&core.ExternalIdentity{
			ProviderUserID: "ext-1",
			Username:       "alice",
			Email:          "alice@example.com",
		}, nil)

	gomock.InOrder(
		mockStore.EXPECT().FindUser(gomock.Any(), "ext-1", auth.SingleProviderName).Return(nil, nil),
		mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser).Times(1),
		mockStore.EXPECT().ListUserOrgs(gomock.Any(), gomock.Any()).Return([]models.Org{}, nil),
	)
	mockStore.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Times(0)

	svc, logs := newTestService(t, mockStore, singleProvider(t, mockProvider))

	user, err := svc.Login(ctx, "Alice", "secret", "")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "ext-1", user.ProviderUserID)
	assert.Equal(t, auth.SingleProviderName, user.Provider)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, user.ProviderUserID, user.UserID)
	assert.NotEmpty(t, user.UserID)
	assert.NotNil(t, user.Orgs)

	require.NotNil(t, user.JWT)
	claims, err := svc.Issuer().Parse(user.JWT.Token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, claims.UserID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))

	entries := logs.FilterMessage("New user").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, EventNewUserCreated, fields["code"])
	assert.Equal(t, "alice", fields["username"])
	assert.Equal(t, auth.SingleProviderName, fields["provider"])
}

func TestLogin_ReturningUserUpdates(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	mockProvider := mocks.NewMockIdentityProvider(ctrl)

	existing := &models.User{
		UserID:         "local-1",
		ProviderUserID: "ext-1",
		Provider:       "ldap",
		Username:       "alice",
		Email:          "old@example.com",
		Avatar:         "https://example.com/a.png",
	}
	orgs := []models.Org{{OrgID: "org-1", Name: "Acme", Role: "admin"}}

	mockProvider.EXPECT().
		Authenticate(gomock.Any(), "alice", "secret").
		Return(&core.ExternalIdentity{
			ProviderUserID: "ext-1",
			Email:          "new@example.com",
		}, nil)

	gomock.InOrder(
		mockStore.EXPECT().FindUser(gomock.Any(), "ext-1", "ldap").Return(existing, nil),
		mockStore.EXPECT().UpdateUser(gomock.Any(), existing).DoAndReturn(returnUser).Times(1),
		mockStore.EXPECT().ListUserOrgs(gomock.Any(), "local-1").Return(orgs, nil),
	)
	mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

	providers, err := auth.NewProviderSet(auth.ProviderEntry{
		Name:     "ldap",
		Default:  true,
		Provider: mockProvider,
	})
	require.NoError(t, err)
	svc, logs := newTestService(t, mockStore, providers)

	user, err := svc.Login(ctx, "alice", "secret", "ldap")
	require.NoError(t, err)
	require.NotNil(t, user)

	// New email merged, absent attributes preserved
	assert.Equal(t, "local-1", user.UserID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "https://example.com/a.png", user.Avatar)
	assert.Equal(t, orgs, user.Orgs)
	assert.False(t, user.LastLogin.IsZero())

	entries := logs.FilterMessage("User login").All()
	require.Len(t, entries, 1)
	assert.Equal(t, EventUserLoggedIn, entries[0].ContextMap()["code"])
}

func TestLogin_ForceSameID(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	mockProvider := mocks.NewMockIdentityProvider(ctrl)

	mockProvider.EXPECT().
		Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&core.ExternalIdentity{ProviderUserID: "ext-42", ForceSameID: true}, nil)
	mockStore.EXPECT().FindUser(gomock.Any(), "ext-42", gomock.Any()).Return(nil, nil)
	mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
	mockStore.EXPECT().ListUserOrgs(gomock.Any(), "ext-42").Return([]models.Org{}, nil)

	svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))

	user, err := svc.Login(ctx, "bob", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "ext-42", user.UserID)
}

func TestLogin_RejectedCredentials(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl) // No expectations: any store call fails the test
	mockProvider := mocks.NewMockIdentityProvider(ctrl)

	mockProvider.EXPECT().
		Authenticate(gomock.Any(), "alice", "wrong").
		Return(nil, nil)

	svc, logs := newTestService(t, mockStore, singleProvider(t, mockProvider))

	user, err := svc.Login(ctx, "alice", "wrong", "")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.Zero(t, logs.Len())
}

func TestLogin_ProviderResolution(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	local := mocks.NewMockIdentityProvider(ctrl)
	remote := mocks.NewMockIdentityProvider(ctrl)

	t.Run("UnknownProvider", func(t *testing.T) {
		providers, err := auth.NewProviderSet(
			auth.ProviderEntry{Name: "local", Default: true, Provider: local},
		)
		require.NoError(t, err)
		svc, _ := newTestService(t, mockStore, providers)

		user, err := svc.Login(ctx, "alice", "pw", "ldap")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrInvalidProvider)
		assert.Contains(t, err.Error(), "ldap")
	})

	t.Run("NoDefault", func(t *testing.T) {
		providers, err := auth.NewProviderSet(
			auth.ProviderEntry{Name: "local", Provider: local},
			auth.ProviderEntry{Name: "remote", Provider: remote},
		)
		require.NoError(t, err)
		svc, _ := newTestService(t, mockStore, providers)

		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrNoDefaultProvider)
	})

	t.Run("DefaultSelected", func(t *testing.T) {
		providers, err := auth.NewProviderSet(
			auth.ProviderEntry{Name: "local", Provider: local},
			auth.ProviderEntry{Name: "remote", Default: true, Provider: remote},
		)
		require.NoError(t, err)
		svc, _ := newTestService(t, mockStore, providers)

		remote.EXPECT().
			Authenticate(gomock.Any(), "alice", "pw").
			Return(&core.ExternalIdentity{ProviderUserID: "r-1"}, nil)
		mockStore.EXPECT().FindUser(gomock.Any(), "r-1", "remote").Return(nil, nil)
		mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
		mockStore.EXPECT().ListUserOrgs(gomock.Any(), gomock.Any()).Return([]models.Org{}, nil)

		user, err := svc.Login(ctx, "alice", "pw", "")
		require.NoError(t, err)
		assert.Equal(t, "remote", user.Provider)
	})

	t.Run("CaseSensitiveName", func(t *testing.T) {
		providers, err := auth.NewProviderSet(
			auth.ProviderEntry{Name: "local", Default: true, Provider: local},
		)
		require.NoError(t, err)
		svc, _ := newTestService(t, mockStore, providers)

		_, err = svc.Login(ctx, "alice", "pw", "LOCAL")
		assert.ErrorIs(t, err, auth.ErrInvalidProvider)
	})
}

func TestLogin_ErrorPropagation(t *testing.T) {
	ctx := context.Background()
	providerErr := errors.New("directory unavailable")
	storeErr := errors.New("connection refused")
	identity := &core.ExternalIdentity{ProviderUserID: "ext-1"}

	t.Run("ProviderError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		mockProvider := mocks.NewMockIdentityProvider(ctrl)
		mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, providerErr)

		svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))
		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.Same(t, providerErr, err)
	})

	t.Run("FindError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		mockProvider := mocks.NewMockIdentityProvider(ctrl)
		mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(identity, nil)
		mockStore.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storeErr)

		svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))
		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("CreateError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		mockProvider := mocks.NewMockIdentityProvider(ctrl)
		mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(identity, nil)
		mockStore.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
		mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, storeErr)

		svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))
		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("UpdateError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		mockProvider := mocks.NewMockIdentityProvider(ctrl)
		mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(identity, nil)
		mockStore.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&models.User{UserID: "u-1", ProviderUserID: "ext-1"}, nil)
		mockStore.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil, storeErr)

		svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))
		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.Same(t, storeErr, err)
	})

	t.Run("ListOrgsError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		mockProvider := mocks.NewMockIdentityProvider(ctrl)
		mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(identity, nil)
		mockStore.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&models.User{UserID: "u-1", ProviderUserID: "ext-1"}, nil)
		mockStore.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
		mockStore.EXPECT().ListUserOrgs(gomock.Any(), "u-1").Return(nil, storeErr)

		svc, _ := newTestService(t, mockStore, singleProvider(t, mockProvider))
		user, err := svc.Login(ctx, "alice", "pw", "")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestLogin_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockUserStore(ctrl)
	mockProvider := mocks.NewMockIdentityProvider(ctrl)
	mockMetrics := mocks.NewMockRecorder(ctrl)
	logger, _ := newObservedLogger()

	mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&core.ExternalIdentity{ProviderUserID: "ext-1"}, nil)
	mockStore.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
	mockStore.EXPECT().ListUserOrgs(gomock.Any(), gomock.Any()).Return([]models.Org{}, nil)

	mockMetrics.EXPECT().RecordUserReconciled(auth.SingleProviderName, core.ReconcileActionCreated)
	mockMetrics.EXPECT().RecordTokenIssued(auth.SingleProviderName)
	mockMetrics.EXPECT().
		RecordLogin(auth.SingleProviderName, core.LoginResultSuccess, gomock.Any())

	svc, err := NewLoginService(Options{
		Store:       mockStore,
		Providers:   singleProvider(t, mockProvider),
		TokenSecret: testSecret,
		Logger:      logger,
		Metrics:     mockMetrics,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "pw", "")
	require.NoError(t, err)
}

func TestLogin_RecordsFailureResult(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection refused")
	signErr := errors.New("signing key rejected")

	tests := []struct {
		name       string
		setupStore func(s *mocks.MockUserStore)
		signErr    error
		wantErr    error
		wantResult string
	}{
		{
			name: "UpdateError",
			setupStore: func(s *mocks.MockUserStore) {
				s.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&models.User{UserID: "u-1", ProviderUserID: "ext-1"}, nil)
				s.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(nil, storeErr)
			},
			wantErr:    storeErr,
			wantResult: core.LoginResultStoreError,
		},
		{
			name: "TokenError",
			setupStore: func(s *mocks.MockUserStore) {
				s.EXPECT().FindUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
				s.EXPECT().ListUserOrgs(gomock.Any(), gomock.Any()).Return([]models.Org{}, nil)
			},
			signErr:    signErr,
			wantErr:    signErr,
			wantResult: core.LoginResultTokenError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockStore := mocks.NewMockUserStore(ctrl)
			mockProvider := mocks.NewMockIdentityProvider(ctrl)
			mockMetrics := mocks.NewMockRecorder(ctrl)
			logger, _ := newObservedLogger()

			mockProvider.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(&core.ExternalIdentity{ProviderUserID: "ext-1"}, nil)
			tt.setupStore(mockStore)
			mockMetrics.EXPECT().RecordLogin(auth.SingleProviderName, tt.wantResult, gomock.Any())

			svc, err := NewLoginService(Options{
				Store:       mockStore,
				Providers:   singleProvider(t, mockProvider),
				TokenSecret: testSecret,
				Logger:      logger,
				Metrics:     mockMetrics,
			})
			require.NoError(t, err)
			if tt.signErr != nil {
				svc.sign = func(string) (*models.AccessToken, error) { return nil, tt.signErr }
			}

			user, err := svc.Login(ctx, "alice", "pw", "")
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoginWithIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidIdentity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, _ := newTestService(
			t,
			mocks.NewMockUserStore(ctrl),
			singleProvider(t, mocks.NewMockIdentityProvider(ctrl)),
		)

		_, err := svc.LoginWithIdentity(ctx, nil, "github")
		assert.ErrorIs(t, err, ErrInvalidIdentity)

		_, err = svc.LoginWithIdentity(ctx, &core.ExternalIdentity{}, "github")
		assert.ErrorIs(t, err, ErrInvalidIdentity)

		_, err = svc.LoginWithIdentity(ctx, &core.ExternalIdentity{ProviderUserID: "1"}, "")
		assert.ErrorIs(t, err, ErrInvalidIdentity)
	})

	t.Run("CreatesUserWithoutProviderCall", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := mocks.NewMockUserStore(ctrl)
		// No Authenticate expectation: the identity is already verified
		mockProvider := mocks.NewMockIdentityProvider(ctrl)

		mockStore.EXPECT().FindUser(gomock.Any(), "12345", "github").Return(nil, nil)
		mockStore.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(returnUser)
		mockStore.EXPECT().ListUserOrgs(gomock.Any(), gomock.Any()).Return([]models.Org{}, nil)

		svc, logs := newTestService(t, mockStore, singleProvider(t, mockProvider))

		user, err := svc.LoginWithIdentity(ctx, &core.ExternalIdentity{
			ProviderUserID: "12345",
			Username:       "octocat",
			Email:          "octocat@github.com",
		}, "github")
		require.NoError(t, err)
		assert.Equal(t, "github", user.Provider)
		assert.Equal(t, "octocat", user.Username)
		require.NotNil(t, user.JWT)

		entries := logs.FilterMessage("New user").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "octocat", entries[0].ContextMap()["username"])
	})
}

func TestLogin_WithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.New(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.CreateLocalCredential(ctx, "Alice", "password123", "ext-alice", "alice@example.com")
	require.NoError(t, err)

	providers, err := auth.NewProviderSet(auth.ProviderEntry{
		Name:     "local",
		Default:  true,
		Provider: auth.NewLocalAuthProvider(db),
	})
	require.NoError(t, err)
	svc, _ := newTestService(t, db, providers)

	first, err := svc.Login(ctx, "ALICE", "password123", "")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "ext-alice", first.ProviderUserID)
	assert.Equal(t, "local", first.Provider)

	second, err := svc.Login(ctx, "alice", "password123", "local")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.UserID, second.UserID)

	claims, err := svc.Issuer().Parse(second.JWT.Token)
	require.NoError(t, err)
	assert.Equal(t, second.JWT.ExpiresAt, claims.ExpiresAt.UnixMilli())

	rejected, err := svc.Login(ctx, "alice", "wrong", "")
	assert.NoError(t, err)
	assert.Nil(t, rejected)
}
