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
	"github.com/earlylookhq/earlylook/pkg/metrics"
)

const (
	maxInvitationsPerDeal    = 10
	defaultInvitationTTLDays = 14
	invitationTokenBytes     = 32
)

// CreateInvitationInput captures a single invitee for a deal.
type CreateInvitationInput struct {
	DealID          string
	InvestorEmail   string
	InvestorName    string
	InvestorType    models.InvestorType
	AnchorPotential bool
	ExpiresAt       *time.Time
}

// InvitationService manages the bounded invite list of a deal. Invitations are
// token-bearing and single-use; expiry is evaluated lazily at acceptance time
// rather than by a background sweeper.
type InvitationService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
	ttl          time.Duration
}

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithInvitationTTL overrides the default validity window of new invitations.
func WithInvitationTTL(ttl time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(db *gorm.DB, auditService *AuditService, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}

	service := &InvitationService{
		db:           db,
		auditService: auditService,
		now:          time.Now,
		ttl:          defaultInvitationTTLDays * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create issues an invitation for a deal. Each deal carries at most ten
// invitations across every status, withdrawn or expired included; the count
// and insert run in one transaction so concurrent invites cannot overshoot.
func (s *InvitationService) Create(ctx context.Context, input CreateInvitationInput) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.InvestorEmail))
	if email == "" {
		return nil, apperrors.NewBadRequest("investor email is required")
	}
	name := strings.TrimSpace(input.InvestorName)
	if name == "" {
		return nil, apperrors.NewBadRequest("investor name is required")
	}
	investorType := input.InvestorType
	if investorType == "" {
		investorType = models.InvestorOther
	}
	if !investorType.Valid() {
		return nil, apperrors.NewBadRequest("unknown investor type")
	}

	token, err := crypto.GenerateToken(invitationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.ttl)
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(s.now()) {
			return nil, apperrors.NewBadRequest("expiry must be in the future")
		}
		expiresAt = input.ExpiresAt.UTC()
	}

	invitation := &models.Invitation{
		DealID:          input.DealID,
		InvestorEmail:   email,
		InvestorName:    name,
		InvestorType:    investorType,
		AnchorPotential: input.AnchorPotential,
		Token:           token,
		ExpiresAt:       expiresAt,
		Status:          models.InvitationPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deal models.Deal
		if err := tx.First(&deal, "id = ?", input.DealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDealNotFound
			}
			return fmt.Errorf("invitation service: load deal: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Invitation{}).Where("deal_id = ?", deal.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("invitation service: count invitations: %w", err)
		}
		if count >= maxInvitationsPerDeal {
			return ErrInvitationLimit
		}

		if err := tx.Create(invitation).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.New(apperrors.ErrConflict.Code, "this investor is already invited to the deal", apperrors.ErrConflict.StatusCode)
			}
			return fmt.Errorf("invitation service: create invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "invitation.create",
		Resource: invitation.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": input.DealID, "investor_email": email},
	})

	return invitation, nil
}

// Accept redeems an invitation token once, binding the invitation to the
// accepting user. A pending invitation past its expiry is flipped to expired
// on this read path and the acceptance is refused.
func (s *InvitationService) Accept(ctx context.Context, token, userID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var invitation models.Invitation
	var lapsed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("token = ?", strings.TrimSpace(token)).First(&invitation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		if err != nil {
			return fmt.Errorf("invitation service: load invitation: %w", err)
		}

		switch invitation.Status {
		case models.InvitationAccepted:
			return ErrInvitationAlreadyUsed
		case models.InvitationExpired:
			return ErrInvitationExpired
		}

		if s.now().After(invitation.ExpiresAt) {
			// The flip to expired must commit even though the acceptance
			// fails, so the transaction returns nil here and the error is
			// raised after it completes.
			if err := tx.Model(&invitation).Update("status", models.InvitationExpired).Error; err != nil {
				return fmt.Errorf("invitation service: expire invitation: %w", err)
			}
			invitation.Status = models.InvitationExpired
			lapsed = true
			return nil
		}

		updates := map[string]any{
			"status":           models.InvitationAccepted,
			"accepted_user_id": userID,
		}
		if err := tx.Model(&invitation).Updates(updates).Error; err != nil {
			return fmt.Errorf("invitation service: accept invitation: %w", err)
		}
		invitation.Status = models.InvitationAccepted
		invitation.AcceptedUserID = &userID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, ErrInvitationExpired
	}

	metrics.InvitationsAccepted.Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "invitation.accept",
		Resource: invitation.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": invitation.DealID},
	})

	return &invitation, nil
}

// List returns a deal's invitations, oldest first.
func (s *InvitationService) List(ctx context.Context, dealID string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	var invitations []models.Invitation
	if err := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}
