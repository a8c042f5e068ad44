package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
)

// AccessService answers who may act on a deal: the issuer that owns it, or an
// investor holding an accepted invitation. The ledger services re-validate
// through it on every mutation so one deal's investor can never act on another.
type AccessService struct {
	db *gorm.DB
}

// NewAccessService constructs an AccessService instance.
func NewAccessService(db *gorm.DB) (*AccessService, error) {
	if db == nil {
		return nil, errors.New("access service: db is required")
	}
	return &AccessService{db: db}, nil
}

// CanAccessDeal reports whether the user owns the deal's issuer profile or
// holds an accepted invitation for it.
func (s *AccessService) CanAccessDeal(ctx context.Context, userID, dealID string) (bool, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	dealID = strings.TrimSpace(dealID)
	if userID == "" || dealID == "" {
		return false, nil
	}

	owns, err := s.ownsDeal(ctx, userID, dealID)
	if err != nil {
		return false, err
	}
	if owns {
		return true, nil
	}

	var invited int64
	if err := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("deal_id = ? AND accepted_user_id = ? AND status = ?", dealID, userID, models.InvitationAccepted).
		Count(&invited).Error; err != nil {
		return false, fmt.Errorf("access service: count invitations: %w", err)
	}

	return invited > 0, nil
}

// RequireDealOwner returns ErrForbidden-equivalent ErrDealNotFound handling:
// the deal must exist and be owned by the user's issuer profile.
func (s *AccessService) RequireDealOwner(ctx context.Context, userID, dealID string) error {
	ctx = ensureContext(ctx)

	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDealNotFound
		}
		return fmt.Errorf("access service: load deal: %w", err)
	}

	owns, err := s.ownsDeal(ctx, userID, dealID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrNotInvited
	}
	return nil
}

// RequireInvitedInvestor fails with ErrNotInvited unless the investor holds an
// accepted invitation binding them to exactly this deal.
func (s *AccessService) RequireInvitedInvestor(ctx context.Context, dealID, investorUserID string) error {
	ctx = ensureContext(ctx)

	var invited int64
	if err := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("deal_id = ? AND accepted_user_id = ? AND status = ?", dealID, investorUserID, models.InvitationAccepted).
		Count(&invited).Error; err != nil {
		return fmt.Errorf("access service: count invitations: %w", err)
	}
	if invited == 0 {
		return ErrNotInvited
	}
	return nil
}

func (s *AccessService) ownsDeal(ctx context.Context, userID, dealID string) (bool, error) {
	var owned int64
	err := s.db.WithContext(ctx).
		Model(&models.Deal{}).
		Joins("JOIN issuers ON issuers.id = deals.issuer_id").
		Where("deals.id = ? AND issuers.owner_user_id = ?", dealID, userID).
		Count(&owned).Error
	if err != nil {
		return false, fmt.Errorf("access service: count ownership: %w", err)
	}
	return owned > 0, nil
}
