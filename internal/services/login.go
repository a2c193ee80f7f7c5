package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-authgate/login/internal/auth"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/metrics"
	"github.com/go-authgate/login/internal/models"
	"github.com/go-authgate/login/internal/token"

	"github.com/google/uuid"
)

// Audit event codes
const (
	EventNewUserCreated = "login:newUserCreated"
	EventUserLoggedIn   = "login:userLoggedIn"
)

var (
	// ErrInvalidConfig is returned by NewLoginService for missing or invalid options
	ErrInvalidConfig = errors.New("invalid login configuration")

	// ErrInvalidIdentity is returned by LoginWithIdentity for an unusable identity
	ErrInvalidIdentity = errors.New("invalid external identity")
)

// Options configures a LoginService.
type Options struct {
	Store       core.UserStore
	Providers   *auth.ProviderSet
	TokenSecret string
	TokenExpiry time.Duration // defaults to 30 minutes
	Logger      core.AuditLogger
	Metrics     core.Recorder // optional
}

// LoginService authenticates users against identity providers, reconciles
// them with local user records and issues access tokens.
// It holds no per-login state and is safe for concurrent use.
type LoginService struct {
	store     core.UserStore
	providers *auth.ProviderSet
	issuer    *token.Issuer
	sign      func(userID string) (*models.AccessToken, error)
	logger    core.AuditLogger
	metrics   core.Recorder
}

// loginRequest carries the state of a single login through the pipeline.
type loginRequest struct {
	providerName string
	username     string
	identity     *core.ExternalIdentity
	user         *models.User
	created      bool
}

// NewLoginService validates opts and creates a LoginService.
func NewLoginService(opts Options) (*LoginService, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: missing database", ErrInvalidConfig)
	}
	if opts.Providers == nil {
		return nil, fmt.Errorf("%w: no identity providers specified", ErrInvalidConfig)
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: missing logger", ErrInvalidConfig)
	}

	issuer, err := token.NewIssuer(opts.TokenSecret, opts.TokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoopMetrics()
	}

	return &LoginService{
		store:     opts.Store,
		providers: opts.Providers,
		issuer:    issuer,
		sign:      issuer.Issue,
		logger:    opts.Logger,
		metrics:   recorder,
	}, nil
}

// Issuer returns the token issuer used to sign access tokens.
func (s *LoginService) Issuer() *token.Issuer {
	return s.issuer
}

// Login authenticates username/password with the named provider, or the
// default provider when providerName is empty.
//
// A nil user with a nil error means the provider rejected the credentials.
// Provider and store errors are returned unchanged.
func (s *LoginService) Login(
	ctx context.Context,
	username, password, providerName string,
) (*models.User, error) {
	start := time.Now()

	// Lowercase so lookups are case-insensitive
	username = strings.ToLower(username)

	provider, resolvedName, err := s.providers.Resolve(providerName)
	if err != nil {
		s.metrics.RecordLogin(providerName, core.LoginResultResolveError, time.Since(start))
		return nil, err
	}

	identity, err := provider.Authenticate(ctx, username, password)
	if err != nil {
		s.metrics.RecordLogin(resolvedName, core.LoginResultProviderError, time.Since(start))
		return nil, err
	}
	if identity == nil {
		s.metrics.RecordLogin(resolvedName, core.LoginResultInvalidCredentials, time.Since(start))
		return nil, nil
	}

	return s.complete(ctx, &loginRequest{
		providerName: resolvedName,
		username:     username,
		identity:     identity,
	}, start)
}

// LoginWithIdentity logs in a caller that already holds a verified external
// identity, such as the result of an OAuth exchange. providerName labels the
// stored user; no provider is resolved or called.
func (s *LoginService) LoginWithIdentity(
	ctx context.Context,
	identity *core.ExternalIdentity,
	providerName string,
) (*models.User, error) {
	start := time.Now()

	if identity == nil || identity.ProviderUserID == "" {
		return nil, fmt.Errorf("%w: missing provider user id", ErrInvalidIdentity)
	}
	if providerName == "" {
		return nil, fmt.Errorf("%w: missing provider name", ErrInvalidIdentity)
	}

	return s.complete(ctx, &loginRequest{
		providerName: providerName,
		username:     identity.Username,
		identity:     identity,
	}, start)
}

// complete runs find, create or update, enrich and token issuance in order.
func (s *LoginService) complete(
	ctx context.Context,
	req *loginRequest,
	start time.Time,
) (*models.User, error) {
	steps := []struct {
		run     func(context.Context, *loginRequest) error
		failure string // login result recorded when run fails
	}{
		{s.findUser, core.LoginResultStoreError},
		{s.createOrUpdateUser, core.LoginResultStoreError},
		{s.loadUserDetails, core.LoginResultStoreError},
		{s.issueToken, core.LoginResultTokenError},
	}
	for _, step := range steps {
		if err := step.run(ctx, req); err != nil {
			s.metrics.RecordLogin(req.providerName, step.failure, time.Since(start))
			return nil, err
		}
	}

	action := core.ReconcileActionUpdated
	if req.created {
		action = core.ReconcileActionCreated
	}
	s.metrics.RecordUserReconciled(req.providerName, action)
	s.metrics.RecordTokenIssued(req.providerName)
	s.metrics.RecordLogin(req.providerName, core.LoginResultSuccess, time.Since(start))

	return req.user, nil
}

func (s *LoginService) findUser(ctx context.Context, req *loginRequest) error {
	user, err := s.store.FindUser(ctx, req.identity.ProviderUserID, req.providerName)
	if err != nil {
		return err
	}
	req.user = user
	return nil
}

func (s *LoginService) createOrUpdateUser(ctx context.Context, req *loginRequest) error {
	if req.user == nil {
		s.logger.Infow("New user",
			"code", EventNewUserCreated,
			"provider", req.providerName,
			"username", req.username,
		)
		return s.createUser(ctx, req)
	}

	s.logger.Infow("User login",
		"code", EventUserLoggedIn,
		"provider", req.providerName,
		"username", req.username,
	)
	return s.updateUser(ctx, req)
}

func (s *LoginService) createUser(ctx context.Context, req *loginRequest) error {
	identity := req.identity

	userID := uuid.NewString()
	if identity.ForceSameID {
		userID = identity.ProviderUserID
	}

	// Only allow-listed profile attributes are copied
	user, err := s.store.CreateUser(ctx, &models.User{
		UserID:         userID,
		ProviderUserID: identity.ProviderUserID,
		Provider:       req.providerName,
		LastLogin:      time.Now(),
		Avatar:         identity.Avatar,
		Username:       identity.Username,
		Email:          identity.Email,
	})
	if err != nil {
		return err
	}

	req.user = user
	req.created = true
	return nil
}

func (s *LoginService) updateUser(ctx context.Context, req *loginRequest) error {
	user := req.user
	identity := req.identity

	if identity.Username != "" {
		user.Username = identity.Username
	}
	if identity.Email != "" {
		user.Email = identity.Email
	}
	if identity.Avatar != "" {
		user.Avatar = identity.Avatar
	}
	user.LastLogin = time.Now()

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return err
	}

	req.user = updated
	return nil
}

func (s *LoginService) loadUserDetails(ctx context.Context, req *loginRequest) error {
	orgs, err := s.store.ListUserOrgs(ctx, req.user.UserID)
	if err != nil {
		return err
	}
	req.user.Orgs = orgs
	return nil
}

func (s *LoginService) issueToken(_ context.Context, req *loginRequest) error {
	accessToken, err := s.sign(req.user.UserID)
	if err != nil {
		return err
	}
	req.user.JWT = accessToken
	return nil
}
