package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ core.UserStore = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

// slowQueryThreshold is the duration above which gorm logs a query as slow
const slowQueryThreshold = 200 * time.Millisecond

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	return open(ctx, driver, dsn, log.New(os.Stdout, "\r\n", log.LstdFlags))
}

// newGormLogger logs warnings and slow queries. A missing row is the normal
// "new user" answer from FindUser, so record-not-found is not reported.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func open(ctx context.Context, driver, dsn string, w logger.Writer) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(w),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// Every sqlite :memory: connection is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Org{},
		&models.OrgMember{},
		&models.LocalCredential{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// User operations

// FindUser finds a user by their provider user ID and provider name.
// Returns (nil, nil) when no user matches.
func (s *Store) FindUser(
	ctx context.Context,
	providerUserID, provider string,
) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("provider_user_id = ? AND provider = ?", providerUserID, provider).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s/%s", ErrUserConflict, user.Provider, user.ProviderUserID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser updates an existing user
func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Org operations

// CreateOrg creates a new organization
func (s *Store) CreateOrg(ctx context.Context, org *models.Org) error {
	return s.db.WithContext(ctx).Create(org).Error
}

// AddOrgMember adds a user to an organization with the given role
func (s *Store) AddOrgMember(ctx context.Context, orgID, userID, role string) error {
	return s.db.WithContext(ctx).Create(&models.OrgMember{
		OrgID:  orgID,
		UserID: userID,
		Role:   role,
	}).Error
}

// ListUserOrgs returns the organizations a user belongs to, ordered by name
func (s *Store) ListUserOrgs(ctx context.Context, userID string) ([]models.Org, error) {
	var orgs []models.Org
	err := s.db.WithContext(ctx).
		Table("orgs").
		Select("orgs.org_id, orgs.name, orgs.created_at, org_members.role").
		Joins("JOIN org_members ON org_members.org_id = orgs.org_id").
		Where("org_members.user_id = ?", userID).
		Order("orgs.name").
		Scan(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user orgs: %w", err)
	}
	if orgs == nil {
		orgs = []models.Org{}
	}
	return orgs, nil
}

// Local credential operations

// GetLocalCredential finds a local credential by username.
// Returns (nil, nil) when the username is unknown.
func (s *Store) GetLocalCredential(
	ctx context.Context,
	username string,
) (*models.LocalCredential, error) {
	var cred models.LocalCredential
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// CreateLocalCredential hashes password and stores a credential for the
// built-in local identity provider. Usernames are stored lowercase.
func (s *Store) CreateLocalCredential(
	ctx context.Context,
	username, password, externalID, email string,
) (*models.LocalCredential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &models.LocalCredential{
		Username:     strings.ToLower(username),
		PasswordHash: string(hash),
		ExternalID:   externalID,
		Email:        email,
	}
	if err := s.db.WithContext(ctx).Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameConflict
		}
		return nil, fmt.Errorf("failed to create local credential: %w", err)
	}
	return cred, nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
