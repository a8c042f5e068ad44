package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
	apperrors "github.com/earlylookhq/earlylook/pkg/errors"
	"github.com/earlylookhq/earlylook/pkg/metrics"
)

// SubmitIOIInput captures one indication of interest against a single band.
type SubmitIOIInput struct {
	DealID             string
	InvestorUserID     string
	BandID             string
	Amount             float64
	Strength           models.IOIStrength
	AnchorFlag         bool
	InvestorNote       string
	DisclaimerAccepted bool
}

// IOIService owns the indication ledger: upsert-keyed submissions, soft
// withdrawals, and the append-only history trail. Every mutation and its
// history row commit in one transaction or not at all.
type IOIService struct {
	db           *gorm.DB
	access       *AccessService
	auditService *AuditService
	now          func() time.Time
}

// IOIOption customises IOIService behaviour.
type IOIOption func(*IOIService)

// WithIOIClock injects a custom clock primarily for testing.
func WithIOIClock(clock func() time.Time) IOIOption {
	return func(s *IOIService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewIOIService constructs an IOIService instance.
func NewIOIService(db *gorm.DB, access *AccessService, auditService *AuditService, opts ...IOIOption) (*IOIService, error) {
	if db == nil {
		return nil, errors.New("ioi service: db is required")
	}
	if access == nil {
		return nil, errors.New("ioi service: access service is required")
	}

	service := &IOIService{
		db:           db,
		access:       access,
		auditService: auditService,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Submit records or revises an indication. The ledger holds at most one live
// IOI per (deal, investor, band); resubmitting the same triple is a revision
// of the existing row, never a second bid.
func (s *IOIService) Submit(ctx context.Context, input SubmitIOIInput) (*models.IOI, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.InvestorUserID) == "" {
		return nil, apperrors.NewBadRequest("investor user id is required")
	}
	strength := input.Strength
	if strength == "" {
		strength = models.StrengthSoft
	}
	if !strength.Valid() {
		return nil, apperrors.NewBadRequest("strength must be soft or strong")
	}

	var (
		result  *models.IOI
		revised bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deal models.Deal
		if err := tx.First(&deal, "id = ?", input.DealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDealNotFound
			}
			return fmt.Errorf("ioi service: load deal: %w", err)
		}
		if deal.Status != models.DealStatusOpen {
			return ErrDealNotOpen
		}

		var band models.Band
		if err := tx.Where("id = ? AND deal_id = ?", input.BandID, deal.ID).First(&band).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBandInvalid
			}
			return fmt.Errorf("ioi service: load band: %w", err)
		}

		if input.Amount <= 0 {
			return ErrInvalidAmount
		}
		if deal.MaxIOIAmount != nil && input.Amount > *deal.MaxIOIAmount {
			return ErrAmountExceedsCap
		}

		if err := s.access.RequireInvitedInvestor(ctx, deal.ID, input.InvestorUserID); err != nil {
			return err
		}

		existing, err := s.findActive(tx, deal.ID, input.InvestorUserID, band.ID)
		if err != nil {
			return err
		}

		if existing != nil {
			updated, err := s.revise(tx, existing, input, strength)
			if err != nil {
				return err
			}
			result = updated
			revised = true
			return nil
		}

		created, err := s.create(tx, input, strength)
		if err == nil {
			result = created
			return nil
		}

		// A concurrent submission for the same triple won the insert; the
		// unique index turned the race into a benign conflict, so apply this
		// call as the revision it semantically is.
		if !isUniqueConstraintError(err) {
			return err
		}
		existing, lookupErr := s.findActive(tx, deal.ID, input.InvestorUserID, band.ID)
		if lookupErr != nil {
			return lookupErr
		}
		if existing == nil {
			return fmt.Errorf("ioi service: upsert conflict without surviving row: %w", err)
		}
		updated, err := s.revise(tx, existing, input, strength)
		if err != nil {
			return err
		}
		result = updated
		revised = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := "create"
	if revised {
		kind = "update"
	}
	metrics.IOISubmissions.WithLabelValues(kind).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "ioi." + kind,
		Resource: result.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": input.DealID, "band_id": input.BandID, "amount": input.Amount},
	})

	result.IsActive = true
	return result, nil
}

// Withdraw soft-deletes the investor's active indication. The history row and
// the deactivation commit together; the triple becomes free for a fresh
// submission while every prior state stays on record.
func (s *IOIService) Withdraw(ctx context.Context, ioiID, investorUserID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ioi models.IOI
		err := tx.Where("id = ? AND investor_user_id = ? AND active = ?", ioiID, investorUserID, true).
			First(&ioi).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIOINotFound
		}
		if err != nil {
			return fmt.Errorf("ioi service: load ioi: %w", err)
		}

		var deal models.Deal
		if err := tx.First(&deal, "id = ?", ioi.DealID).Error; err != nil {
			return fmt.Errorf("ioi service: load deal: %w", err)
		}
		if deal.Status != models.DealStatusOpen {
			return ErrDealNotOpen
		}

		if err := s.appendHistory(tx, &ioi, models.IOIChangeDelete); err != nil {
			return err
		}

		// NULL, not false: withdrawn rows must never collide inside the
		// composite unique index.
		if err := tx.Model(&ioi).Update("active", gorm.Expr("NULL")).Error; err != nil {
			return fmt.Errorf("ioi service: deactivate ioi: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IOISubmissions.WithLabelValues("withdraw").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "ioi.withdraw",
		Resource: ioiID,
		Result:   "success",
	})

	return nil
}

// ListActive returns every live indication for a deal, the issuer's book view.
func (s *IOIService) ListActive(ctx context.Context, dealID string) ([]models.IOI, error) {
	ctx = ensureContext(ctx)

	var iois []models.IOI
	if err := s.db.WithContext(ctx).
		Where("deal_id = ? AND active = ?", dealID, true).
		Order("created_at ASC").
		Find(&iois).Error; err != nil {
		return nil, fmt.Errorf("ioi service: list active: %w", err)
	}
	return iois, nil
}

// ListForInvestor returns one investor's live indications within a deal.
func (s *IOIService) ListForInvestor(ctx context.Context, dealID, investorUserID string) ([]models.IOI, error) {
	ctx = ensureContext(ctx)

	var iois []models.IOI
	if err := s.db.WithContext(ctx).
		Where("deal_id = ? AND investor_user_id = ? AND active = ?", dealID, investorUserID, true).
		Order("created_at ASC").
		Find(&iois).Error; err != nil {
		return nil, fmt.Errorf("ioi service: list for investor: %w", err)
	}
	return iois, nil
}

// Get loads one indication by id, withdrawn rows included.
func (s *IOIService) Get(ctx context.Context, ioiID string) (*models.IOI, error) {
	ctx = ensureContext(ctx)

	var ioi models.IOI
	err := s.db.WithContext(ctx).First(&ioi, "id = ?", ioiID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIOINotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ioi service: load ioi: %w", err)
	}
	return &ioi, nil
}

// History returns the append-only change trail of one indication, oldest first.
func (s *IOIService) History(ctx context.Context, ioiID string) ([]models.IOIHistory, error) {
	ctx = ensureContext(ctx)

	var history []models.IOIHistory
	if err := s.db.WithContext(ctx).
		Where("ioi_id = ?", ioiID).
		Order("changed_at ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("ioi service: load history: %w", err)
	}
	return history, nil
}

func (s *IOIService) findActive(tx *gorm.DB, dealID, investorUserID, bandID string) (*models.IOI, error) {
	var ioi models.IOI
	err := tx.Where(
		"deal_id = ? AND investor_user_id = ? AND band_id = ? AND active = ?",
		dealID, investorUserID, bandID, true,
	).First(&ioi).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ioi service: find active ioi: %w", err)
	}
	return &ioi, nil
}

func (s *IOIService) create(tx *gorm.DB, input SubmitIOIInput, strength models.IOIStrength) (*models.IOI, error) {
	ioi := &models.IOI{
		DealID:             input.DealID,
		InvestorUserID:     input.InvestorUserID,
		BandID:             input.BandID,
		Amount:             input.Amount,
		Strength:           strength,
		AnchorFlag:         input.AnchorFlag,
		InvestorNote:       strings.TrimSpace(input.InvestorNote),
		DisclaimerAccepted: input.DisclaimerAccepted,
		Active:             models.ActiveTrue(),
	}

	if err := tx.Create(ioi).Error; err != nil {
		return nil, err
	}

	if err := s.appendHistory(tx, ioi, models.IOIChangeCreate); err != nil {
		return nil, err
	}
	return ioi, nil
}

// revise snapshots the prior state before overwriting the live row.
func (s *IOIService) revise(tx *gorm.DB, existing *models.IOI, input SubmitIOIInput, strength models.IOIStrength) (*models.IOI, error) {
	if err := s.appendHistory(tx, existing, models.IOIChangeUpdate); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"amount":        input.Amount,
		"strength":      strength,
		"anchor_flag":   input.AnchorFlag,
		"investor_note": strings.TrimSpace(input.InvestorNote),
		"updated_at":    s.now().UTC(),
	}
	if err := tx.Model(existing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("ioi service: update ioi: %w", err)
	}

	existing.Amount = input.Amount
	existing.Strength = strength
	existing.AnchorFlag = input.AnchorFlag
	existing.InvestorNote = strings.TrimSpace(input.InvestorNote)
	return existing, nil
}

func (s *IOIService) appendHistory(tx *gorm.DB, ioi *models.IOI, change models.IOIChangeType) error {
	history := models.IOIHistory{
		IOIID:        ioi.ID,
		Amount:       ioi.Amount,
		Strength:     ioi.Strength,
		AnchorFlag:   ioi.AnchorFlag,
		InvestorNote: ioi.InvestorNote,
		ChangeType:   change,
		ChangedAt:    s.now().UTC(),
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("ioi service: append history: %w", err)
	}
	return nil
}
