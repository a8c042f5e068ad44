package models

import "time"

// InvitationStatus tracks the token lifecycle: pending -> accepted, or
// pending -> expired once past the expiry timestamp without acceptance.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Valid reports whether the status is one of the closed set.
func (s InvitationStatus) Valid() bool {
	return s == InvitationPending || s == InvitationAccepted || s == InvitationExpired
}

// Invitation binds an investor email to a deal through a single-use token.
type Invitation struct {
	BaseModel

	DealID          string           `gorm:"type:uuid;not null;index;uniqueIndex:uniq_deal_invitee" json:"deal_id"`
	InvestorEmail   string           `gorm:"not null;uniqueIndex:uniq_deal_invitee" json:"investor_email"`
	InvestorName    string           `json:"investor_name"`
	InvestorType    InvestorType     `gorm:"default:institutional" json:"investor_type"`
	AnchorPotential bool             `gorm:"default:false" json:"anchor_potential"`
	Token           string           `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt       time.Time        `gorm:"not null;index" json:"expires_at"`
	Status          InvitationStatus `gorm:"not null;default:pending" json:"status"`
	AcceptedUserID  *string          `gorm:"type:uuid" json:"accepted_user_id,omitempty"`
}
