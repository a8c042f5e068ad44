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

const (
	minBandsToOpen = 3
	maxBandsToOpen = 7
)

// CreateDealInput captures new deal metadata.
type CreateDealInput struct {
	IssuerID     string
	Name         string
	DealType     models.DealType
	Currency     string
	TargetAmount float64
	Description  string
	EndAt        *time.Time
	MaxIOIAmount *float64
}

// UpdateDealInput enumerates exactly the mutable deal fields. Each field is
// validated independently; unknown fields cannot slip through a dynamic map.
type UpdateDealInput struct {
	Name         *string
	Description  *string
	Currency     *string
	TargetAmount *float64
	EndAt        *time.Time
	MaxIOIAmount *float64
}

// DealService handles deal lifecycle, metadata, and indicative range selection.
type DealService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// DealOption customises DealService behaviour.
type DealOption func(*DealService)

// WithDealClock injects a custom clock primarily for testing.
func WithDealClock(clock func() time.Time) DealOption {
	return func(s *DealService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewDealService constructs a DealService instance.
func NewDealService(db *gorm.DB, auditService *AuditService, opts ...DealOption) (*DealService, error) {
	if db == nil {
		return nil, errors.New("deal service: db is required")
	}

	service := &DealService{
		db:           db,
		auditService: auditService,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create registers a new deal in draft status.
func (s *DealService) Create(ctx context.Context, input CreateDealInput) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("deal name is required")
	}
	if !input.DealType.Valid() {
		return nil, apperrors.NewBadRequest("deal type must be equity or debt")
	}
	if input.TargetAmount <= 0 {
		return nil, apperrors.NewBadRequest("target amount must be positive")
	}
	if input.MaxIOIAmount != nil && *input.MaxIOIAmount <= 0 {
		return nil, apperrors.NewBadRequest("max IOI amount must be positive")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "AED"
	}

	deal := &models.Deal{
		IssuerID:     strings.TrimSpace(input.IssuerID),
		Name:         name,
		DealType:     input.DealType,
		Currency:     currency,
		TargetAmount: input.TargetAmount,
		Description:  strings.TrimSpace(input.Description),
		Status:       models.DealStatusDraft,
		EndAt:        input.EndAt,
		MaxIOIAmount: input.MaxIOIAmount,
	}

	if err := s.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, fmt.Errorf("deal service: create deal: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "deal.create",
		Resource: deal.ID,
		Result:   "success",
		Metadata: map[string]any{"name": deal.Name, "type": deal.DealType},
	})

	return deal, nil
}

// Update modifies draft-mutable deal metadata.
func (s *DealService) Update(ctx context.Context, dealID string, input UpdateDealInput) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	deal, err := s.load(ctx, dealID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("deal name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if currency == "" {
			return nil, apperrors.NewBadRequest("currency must not be empty")
		}
		updates["currency"] = currency
	}
	if input.TargetAmount != nil {
		if *input.TargetAmount <= 0 {
			return nil, apperrors.NewBadRequest("target amount must be positive")
		}
		// Coverage ratios would silently shift mid-book otherwise.
		if deal.Status != models.DealStatusDraft {
			return nil, ErrInvalidStateTransition
		}
		updates["target_amount"] = *input.TargetAmount
	}
	if input.EndAt != nil {
		updates["end_at"] = *input.EndAt
	}
	if input.MaxIOIAmount != nil {
		if *input.MaxIOIAmount <= 0 {
			return nil, apperrors.NewBadRequest("max IOI amount must be positive")
		}
		if deal.Status != models.DealStatusDraft {
			return nil, ErrInvalidStateTransition
		}
		updates["max_ioi_amount"] = *input.MaxIOIAmount
	}

	if len(updates) == 0 {
		return deal, nil
	}

	if err := s.db.WithContext(ctx).Model(deal).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("deal service: update deal: %w", err)
	}

	if err := s.db.WithContext(ctx).First(deal, "id = ?", dealID).Error; err != nil {
		return nil, fmt.Errorf("deal service: reload deal: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "deal.update",
		Resource: deal.ID,
		Result:   "success",
		Metadata: updates,
	})

	return deal, nil
}

// GetByID loads a deal with its ordered bands.
func (s *DealService) GetByID(ctx context.Context, dealID string) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	var deal models.Deal
	err := s.db.WithContext(ctx).
		Preload("Bands", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		First(&deal, "id = ?", dealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deal service: get deal: %w", err)
	}

	return &deal, nil
}

// ListForIssuer returns the issuer's deals, newest first.
func (s *DealService) ListForIssuer(ctx context.Context, issuerID string) ([]models.Deal, error) {
	ctx = ensureContext(ctx)

	var deals []models.Deal
	if err := s.db.WithContext(ctx).
		Where("issuer_id = ?", issuerID).
		Order("created_at DESC").
		Find(&deals).Error; err != nil {
		return nil, fmt.Errorf("deal service: list deals: %w", err)
	}

	return deals, nil
}

// Open transitions a draft deal with 3-7 bands into the open status and stamps
// start_at when unset.
func (s *DealService) Open(ctx context.Context, dealID string) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	var deal *models.Deal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadTx(tx, dealID)
		if err != nil {
			return err
		}
		deal = loaded

		if deal.Status != models.DealStatusDraft {
			return ErrInvalidStateTransition
		}

		var bandCount int64
		if err := tx.Model(&models.Band{}).Where("deal_id = ?", dealID).Count(&bandCount).Error; err != nil {
			return fmt.Errorf("deal service: count bands: %w", err)
		}
		if bandCount < minBandsToOpen || bandCount > maxBandsToOpen {
			return ErrConstraintViolation
		}

		updates := map[string]any{"status": models.DealStatusOpen}
		if deal.StartAt == nil {
			now := s.now().UTC()
			updates["start_at"] = now
			deal.StartAt = &now
		}

		if err := tx.Model(deal).Updates(updates).Error; err != nil {
			return fmt.Errorf("deal service: open deal: %w", err)
		}
		deal.Status = models.DealStatusOpen
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DealTransitions.WithLabelValues("open").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "deal.open",
		Resource: deal.ID,
		Result:   "success",
	})

	return deal, nil
}

// Close freezes an open deal; the ledger becomes read-only for investors.
func (s *DealService) Close(ctx context.Context, dealID string) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	deal, err := s.load(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if deal.Status != models.DealStatusOpen {
		return nil, ErrInvalidStateTransition
	}

	now := s.now().UTC()
	updates := map[string]any{
		"status":    models.DealStatusClosed,
		"closed_at": now,
	}
	if err := s.db.WithContext(ctx).Model(deal).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("deal service: close deal: %w", err)
	}
	deal.Status = models.DealStatusClosed
	deal.ClosedAt = &now

	metrics.DealTransitions.WithLabelValues("close").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "deal.close",
		Resource: deal.ID,
		Result:   "success",
	})

	return deal, nil
}

// SetIndicativeRange records two adjacent bands as the deal's final indicative
// range, normalising so the stored low band has the smaller order index.
//
// Callers are expected to invoke this only after the deal is closed; the
// service itself guards adjacency and ownership, not timing.
func (s *DealService) SetIndicativeRange(ctx context.Context, dealID, lowBandID, highBandID, description string) (*models.Deal, error) {
	ctx = ensureContext(ctx)

	deal, err := s.load(ctx, dealID)
	if err != nil {
		return nil, err
	}

	var low, high models.Band
	if err := s.db.WithContext(ctx).First(&low, "id = ?", lowBandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBandInvalid
		}
		return nil, fmt.Errorf("deal service: load low band: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&high, "id = ?", highBandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBandInvalid
		}
		return nil, fmt.Errorf("deal service: load high band: %w", err)
	}

	if low.DealID != dealID || high.DealID != dealID {
		return nil, ErrBandInvalid
	}

	diff := low.OrderIndex - high.OrderIndex
	if diff != 1 && diff != -1 {
		return nil, ErrBandsNotAdjacent
	}

	if low.OrderIndex > high.OrderIndex {
		low, high = high, low
	}

	updates := map[string]any{
		"range_low_band_id":  low.ID,
		"range_high_band_id": high.ID,
		"range_description":  strings.TrimSpace(description),
	}
	if err := s.db.WithContext(ctx).Model(deal).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("deal service: set range: %w", err)
	}
	deal.RangeLowBandID = &low.ID
	deal.RangeHighBandID = &high.ID
	deal.RangeDescription = strings.TrimSpace(description)

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "deal.set_range",
		Resource: deal.ID,
		Result:   "success",
		Metadata: map[string]any{"low_band_id": low.ID, "high_band_id": high.ID},
	})

	return deal, nil
}

func (s *DealService) load(ctx context.Context, dealID string) (*models.Deal, error) {
	return s.loadTx(s.db.WithContext(ctx), dealID)
}

func (s *DealService) loadTx(tx *gorm.DB, dealID string) (*models.Deal, error) {
	var deal models.Deal
	err := tx.First(&deal, "id = ?", dealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deal service: load deal: %w", err)
	}
	return &deal, nil
}
