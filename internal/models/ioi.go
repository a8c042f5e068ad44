package models

import "gorm.io/gorm"

// IOIStrength grades how firm a non-binding indication is.
type IOIStrength string

const (
	StrengthSoft   IOIStrength = "soft"
	StrengthStrong IOIStrength = "strong"
)

// Valid reports whether the strength is one of the closed set.
func (s IOIStrength) Valid() bool {
	return s == StrengthSoft || s == StrengthStrong
}

// IOI is a non-binding indication of interest for one band of a deal.
//
// Uniqueness: at most one live IOI per (deal, investor, band). Active is TRUE
// on the live row and NULL once withdrawn; NULLs never collide inside the
// composite unique index, so any number of withdrawn rows can share a triple
// while a second live row is rejected by the database itself.
type IOI struct {
	BaseModel

	DealID         string `gorm:"type:uuid;not null;index;uniqueIndex:uniq_active_ioi" json:"deal_id"`
	InvestorUserID string `gorm:"type:uuid;not null;index;uniqueIndex:uniq_active_ioi" json:"investor_user_id"`
	BandID         string `gorm:"type:uuid;not null;index;uniqueIndex:uniq_active_ioi" json:"band_id"`

	Amount             float64     `gorm:"not null" json:"amount"`
	Strength           IOIStrength `gorm:"not null;default:soft" json:"strength"`
	AnchorFlag         bool        `gorm:"default:false" json:"anchor_flag"`
	InvestorNote       string      `gorm:"type:text" json:"investor_note"`
	DisclaimerAccepted bool        `gorm:"default:false" json:"disclaimer_accepted"`

	Active *bool `gorm:"uniqueIndex:uniq_active_ioi" json:"-"`

	// IsActive mirrors Active for API consumers.
	IsActive bool `gorm:"-" json:"is_active"`
}

// AfterFind projects the nullable Active column onto the boolean view.
func (i *IOI) AfterFind(tx *gorm.DB) error {
	i.IsActive = i.Active != nil && *i.Active
	return nil
}

// ActiveTrue returns a pointer suitable for the Active column of a live row.
func ActiveTrue() *bool {
	v := true
	return &v
}
