package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/pkg/crypto"
	apperrors "github.com/earlylookhq/earlylook/pkg/errors"
)

// RegisterIssuerInput captures a new issuer account and its organisation.
type RegisterIssuerInput struct {
	Email       string
	Password    string
	DisplayName string
	OrgName     string
}

// RegisterInvestorInput captures a new investor account.
type RegisterInvestorInput struct {
	Email        string
	Password     string
	DisplayName  string
	InvestorType models.InvestorType
}

// UserService handles account registration and credential checks.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: auditService, now: time.Now}, nil
}

// RegisterIssuer creates an issuer user together with its organisation profile.
func (s *UserService) RegisterIssuer(ctx context.Context, input RegisterIssuerInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	orgName := strings.TrimSpace(input.OrgName)
	if orgName == "" {
		return nil, apperrors.NewBadRequest("organisation name is required")
	}

	user, err := s.register(ctx, input.Email, input.Password, input.DisplayName, models.RoleIssuer, func(tx *gorm.DB, user *models.User) error {
		issuer := &models.Issuer{
			OrgName:     orgName,
			OwnerUserID: user.ID,
		}
		if err := tx.Create(issuer).Error; err != nil {
			return fmt.Errorf("user service: create issuer profile: %w", err)
		}
		user.IssuerProfile = issuer
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "user.register",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"role": models.RoleIssuer},
	})
	return user, nil
}

// RegisterInvestor creates an investor user with its profile.
func (s *UserService) RegisterInvestor(ctx context.Context, input RegisterInvestorInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	investorType := input.InvestorType
	if investorType == "" {
		investorType = models.InvestorOther
	}
	if !investorType.Valid() {
		return nil, apperrors.NewBadRequest("unknown investor type")
	}

	user, err := s.register(ctx, input.Email, input.Password, input.DisplayName, models.RoleInvestor, func(tx *gorm.DB, user *models.User) error {
		investor := &models.Investor{
			UserID:       user.ID,
			DisplayName:  user.DisplayName,
			InvestorType: investorType,
		}
		if err := tx.Create(investor).Error; err != nil {
			return fmt.Errorf("user service: create investor profile: %w", err)
		}
		user.InvestorProfile = investor
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "user.register",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"role": models.RoleInvestor},
	})
	return user, nil
}

// Authenticate verifies credentials and stamps last_login_at on success. The
// same error covers unknown email and wrong password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: stamp login: %w", err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

// GetByID loads a user with both role profiles preloaded.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("IssuerProfile").
		Preload("InvestorProfile").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) register(ctx context.Context, email, password, displayName string, role models.UserRole, attachProfile func(*gorm.DB, *models.User) error) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperrors.NewBadRequest("display name is required")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DisplayName:  displayName,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.New(apperrors.ErrConflict.Code, "an account with this email already exists", apperrors.ErrConflict.StatusCode)
			}
			return fmt.Errorf("user service: create user: %w", err)
		}
		return attachProfile(tx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
