package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
	apperrors "github.com/earlylookhq/earlylook/pkg/errors"
)

// AddBandInput captures a new price/yield band for a draft deal.
type AddBandInput struct {
	DealID     string
	Label      string
	BandValue  float64
	OrderIndex int
	PERatio    string
	EVEBITDA   string
}

// BandService manages the ordered band catalog of a deal.
type BandService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewBandService constructs a BandService instance.
func NewBandService(db *gorm.DB, auditService *AuditService) (*BandService, error) {
	if db == nil {
		return nil, errors.New("band service: db is required")
	}
	return &BandService{db: db, auditService: auditService}, nil
}

// Add appends a band to a draft deal. Order indexes are unique per deal; the
// composite index backstops the check under concurrent inserts.
func (s *BandService) Add(ctx context.Context, input AddBandInput) (*models.Band, error) {
	ctx = ensureContext(ctx)

	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, apperrors.NewBadRequest("band label is required")
	}
	if input.OrderIndex < 1 {
		return nil, apperrors.NewBadRequest("band order index must be 1 or greater")
	}

	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", input.DealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("band service: load deal: %w", err)
	}

	// Bands are immutable once the book opens; adding later could break the
	// 3-7 invariant checked at open time.
	if deal.Status != models.DealStatusDraft {
		return nil, ErrInvalidStateTransition
	}

	band := &models.Band{
		DealID:     deal.ID,
		Label:      label,
		BandValue:  input.BandValue,
		OrderIndex: input.OrderIndex,
		PERatio:    strings.TrimSpace(input.PERatio),
		EVEBITDA:   strings.TrimSpace(input.EVEBITDA),
	}

	if err := s.db.WithContext(ctx).Create(band).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("a band with this order index already exists")
		}
		return nil, fmt.Errorf("band service: create band: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "band.add",
		Resource: band.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": deal.ID, "order_index": band.OrderIndex},
	})

	return band, nil
}

// List returns a deal's bands ordered by index.
func (s *BandService) List(ctx context.Context, dealID string) ([]models.Band, error) {
	ctx = ensureContext(ctx)

	var bands []models.Band
	if err := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("order_index ASC").
		Find(&bands).Error; err != nil {
		return nil, fmt.Errorf("band service: list bands: %w", err)
	}

	return bands, nil
}

// Delete removes a band from a draft deal unless any IOI references it.
func (s *BandService) Delete(ctx context.Context, bandID string) error {
	ctx = ensureContext(ctx)

	var band models.Band
	if err := s.db.WithContext(ctx).First(&band, "id = ?", bandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBandInvalid
		}
		return fmt.Errorf("band service: load band: %w", err)
	}

	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", band.DealID).Error; err != nil {
		return fmt.Errorf("band service: load deal: %w", err)
	}
	if deal.Status != models.DealStatusDraft {
		return ErrInvalidStateTransition
	}

	var refs int64
	if err := s.db.WithContext(ctx).
		Model(&models.IOI{}).
		Where("band_id = ?", bandID).
		Count(&refs).Error; err != nil {
		return fmt.Errorf("band service: count references: %w", err)
	}
	if refs > 0 {
		return ErrBandHasIOIs
	}

	if err := s.db.WithContext(ctx).Delete(&band).Error; err != nil {
		return fmt.Errorf("band service: delete band: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "band.delete",
		Resource: band.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": band.DealID},
	})

	return nil
}
