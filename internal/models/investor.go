package models

// InvestorType categorises invited investors for the issuer's book view.
type InvestorType string

const (
	InvestorInstitutional InvestorType = "institutional"
	InvestorFamilyOffice  InvestorType = "family_office"
	InvestorHNWI          InvestorType = "hnwi"
	InvestorSovereign     InvestorType = "sovereign"
	InvestorOther         InvestorType = "other"
)

// Valid reports whether the investor type is one of the closed set.
func (t InvestorType) Valid() bool {
	switch t {
	case InvestorInstitutional, InvestorFamilyOffice, InvestorHNWI, InvestorSovereign, InvestorOther:
		return true
	}
	return false
}

// Investor is the profile attached to a user acting on the investor side.
type Investor struct {
	BaseModel

	UserID       string       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	DisplayName  string       `json:"display_name"`
	InvestorType InvestorType `gorm:"default:institutional" json:"investor_type"`
}
