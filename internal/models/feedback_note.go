package models

// FeedbackScope says what a feedback note annotates.
type FeedbackScope string

const (
	FeedbackScopeInvestor FeedbackScope = "investor"
	FeedbackScopeBand     FeedbackScope = "band"
	FeedbackScopeGeneral  FeedbackScope = "general"
)

// Valid reports whether the scope is one of the closed set.
func (s FeedbackScope) Valid() bool {
	return s == FeedbackScopeInvestor || s == FeedbackScopeBand || s == FeedbackScopeGeneral
}

// FeedbackNote is an issuer-internal annotation on a deal, optionally scoped
// to a single investor or band via ScopeID.
type FeedbackNote struct {
	BaseModel

	DealID          string        `gorm:"type:uuid;not null;index" json:"deal_id"`
	CreatedByUserID string        `gorm:"type:uuid;not null" json:"created_by_user_id"`
	Scope           FeedbackScope `gorm:"not null;default:general" json:"scope"`
	ScopeID         *string       `gorm:"type:uuid" json:"scope_id,omitempty"`
	NoteText        string        `gorm:"type:text;not null" json:"note_text"`
}
