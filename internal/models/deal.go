package models

import "time"

// DealType distinguishes equity raises from debt issuances.
type DealType string

const (
	DealTypeEquity DealType = "equity"
	DealTypeDebt   DealType = "debt"
)

// Valid reports whether the deal type is one of the closed set.
func (t DealType) Valid() bool {
	return t == DealTypeEquity || t == DealTypeDebt
}

// DealStatus is the forward-only lifecycle: draft -> open -> closed.
type DealStatus string

const (
	DealStatusDraft  DealStatus = "draft"
	DealStatusOpen   DealStatus = "open"
	DealStatusClosed DealStatus = "closed"
)

// Valid reports whether the status is one of the closed set.
func (s DealStatus) Valid() bool {
	return s == DealStatusDraft || s == DealStatusOpen || s == DealStatusClosed
}

// Deal is a capital-raise room with ordered price/yield bands.
type Deal struct {
	BaseModel

	IssuerID     string     `gorm:"type:uuid;not null;index" json:"issuer_id"`
	Name         string     `gorm:"not null" json:"name"`
	DealType     DealType   `gorm:"not null" json:"deal_type"`
	Currency     string     `gorm:"size:10;default:AED" json:"currency"`
	TargetAmount float64    `gorm:"not null" json:"target_amount"`
	Status       DealStatus `gorm:"not null;default:draft;index" json:"status"`
	Description  string     `gorm:"type:text" json:"description"`

	StartAt  *time.Time `json:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// MaxIOIAmount caps a single investor's indication when set.
	MaxIOIAmount *float64 `json:"max_ioi_amount,omitempty"`

	// Indicative range: two adjacent bands chosen after the book closes.
	RangeLowBandID   *string `gorm:"type:uuid" json:"range_low_band_id,omitempty"`
	RangeHighBandID  *string `gorm:"type:uuid" json:"range_high_band_id,omitempty"`
	RangeDescription string  `gorm:"type:text" json:"range_description,omitempty"`

	Bands       []Band       `gorm:"foreignKey:DealID" json:"bands,omitempty"`
	Invitations []Invitation `gorm:"foreignKey:DealID" json:"invitations,omitempty"`
	IOIs        []IOI        `gorm:"foreignKey:DealID" json:"iois,omitempty"`
}
