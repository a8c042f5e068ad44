package models

// Issuer is the organisation profile that owns deals.
type Issuer struct {
	BaseModel

	OrgName     string `gorm:"not null" json:"org_name"`
	OwnerUserID string `gorm:"type:uuid;uniqueIndex;not null" json:"owner_user_id"`

	Deals []Deal `gorm:"foreignKey:IssuerID" json:"deals,omitempty"`
}
