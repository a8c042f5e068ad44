package models

import "time"

// UserRole distinguishes the two sides of a deal room.
type UserRole string

const (
	RoleIssuer   UserRole = "issuer"
	RoleInvestor UserRole = "investor"
)

// Valid reports whether the role is one of the closed set.
func (r UserRole) Valid() bool {
	return r == RoleIssuer || r == RoleInvestor
}

// User describes an authenticated account, either an issuer or an invited investor.
type User struct {
	BaseModel

	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"not null" json:"role"`
	DisplayName  string   `json:"display_name"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	IssuerProfile   *Issuer   `gorm:"foreignKey:OwnerUserID" json:"issuer_profile,omitempty"`
	InvestorProfile *Investor `gorm:"foreignKey:UserID" json:"investor_profile,omitempty"`
}
