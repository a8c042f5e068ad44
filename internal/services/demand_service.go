package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
)

// BandDemand is one row of the per-band demand breakdown.
type BandDemand struct {
	BandID     string  `json:"band_id"`
	Label      string  `json:"label"`
	BandValue  float64 `json:"band_value"`
	OrderIndex int     `json:"order_index"`
	Demand     float64 `json:"demand"`
	BidCount   int64   `json:"bid_count"`
	Coverage   float64 `json:"coverage"`
}

// DemandSummary aggregates a deal's live book. Withdrawn indications never
// contribute; a band with no live indications still appears with zeros so the
// issuer sees the full ladder.
type DemandSummary struct {
	DealID          string       `json:"deal_id"`
	TargetAmount    float64      `json:"target_amount"`
	TotalDemand     float64      `json:"total_demand"`
	TotalBids       int64        `json:"total_bids"`
	OverallCoverage float64      `json:"overall_coverage"`
	Bands           []BandDemand `json:"bands"`
}

// DemandService computes read-only aggregation over the IOI ledger.
type DemandService struct {
	db *gorm.DB
}

// NewDemandService constructs a DemandService instance.
func NewDemandService(db *gorm.DB) (*DemandService, error) {
	if db == nil {
		return nil, errors.New("demand service: db is required")
	}
	return &DemandService{db: db}, nil
}

type bandAggregate struct {
	BandID   string
	Demand   float64
	BidCount int64
}

// Summary computes totals and per-band coverage for a deal. Coverage divides
// by target amount and reports zero when the target is zero.
func (s *DemandService) Summary(ctx context.Context, dealID string) (*DemandSummary, error) {
	ctx = ensureContext(ctx)

	var deal models.Deal
	err := s.db.WithContext(ctx).First(&deal, "id = ?", dealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("demand service: load deal: %w", err)
	}

	var bands []models.Band
	if err := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("order_index ASC").
		Find(&bands).Error; err != nil {
		return nil, fmt.Errorf("demand service: load bands: %w", err)
	}

	var aggregates []bandAggregate
	if err := s.db.WithContext(ctx).
		Model(&models.IOI{}).
		Select("band_id, COALESCE(SUM(amount), 0) AS demand, COUNT(*) AS bid_count").
		Where("deal_id = ? AND active = ?", dealID, true).
		Group("band_id").
		Scan(&aggregates).Error; err != nil {
		return nil, fmt.Errorf("demand service: aggregate iois: %w", err)
	}

	byBand := make(map[string]bandAggregate, len(aggregates))
	for _, agg := range aggregates {
		byBand[agg.BandID] = agg
	}

	summary := &DemandSummary{
		DealID:       deal.ID,
		TargetAmount: deal.TargetAmount,
		Bands:        make([]BandDemand, 0, len(bands)),
	}

	for _, band := range bands {
		agg := byBand[band.ID]
		row := BandDemand{
			BandID:     band.ID,
			Label:      band.Label,
			BandValue:  band.BandValue,
			OrderIndex: band.OrderIndex,
			Demand:     agg.Demand,
			BidCount:   agg.BidCount,
		}
		if deal.TargetAmount > 0 {
			row.Coverage = agg.Demand / deal.TargetAmount
		}
		summary.TotalDemand += agg.Demand
		summary.TotalBids += agg.BidCount
		summary.Bands = append(summary.Bands, row)
	}

	if deal.TargetAmount > 0 {
		summary.OverallCoverage = summary.TotalDemand / deal.TargetAmount
	}

	return summary, nil
}
