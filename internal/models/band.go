package models

// Band is one discrete price or yield point investors indicate interest against.
// OrderIndex is 1-based and dense within a deal.
type Band struct {
	BaseModel

	DealID     string  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_deal_band_order" json:"deal_id"`
	Label      string  `gorm:"size:50;not null" json:"label"`
	BandValue  float64 `gorm:"not null" json:"band_value"`
	OrderIndex int     `gorm:"not null;uniqueIndex:uniq_deal_band_order" json:"order_index"`

	// Free-text display multiples for equity deals.
	PERatio  string `gorm:"size:50" json:"pe_ratio,omitempty"`
	EVEBITDA string `gorm:"size:50" json:"ev_ebitda,omitempty"`
}
