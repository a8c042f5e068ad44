package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IOIChangeType labels what happened to the IOI when the snapshot was taken.
type IOIChangeType string

const (
	IOIChangeCreate IOIChangeType = "create"
	IOIChangeUpdate IOIChangeType = "update"
	IOIChangeDelete IOIChangeType = "delete"
)

// Valid reports whether the change type is one of the closed set.
func (t IOIChangeType) Valid() bool {
	return t == IOIChangeCreate || t == IOIChangeUpdate || t == IOIChangeDelete
}

// IOIHistory is an append-only snapshot of an IOI taken on every create,
// update, and withdrawal. Rows are never updated or deleted.
type IOIHistory struct {
	ID           string        `gorm:"primaryKey;type:uuid" json:"id"`
	IOIID        string        `gorm:"type:uuid;not null;index" json:"ioi_id"`
	Amount       float64       `gorm:"not null" json:"amount"`
	Strength     IOIStrength   `json:"strength"`
	AnchorFlag   bool          `json:"anchor_flag"`
	InvestorNote string        `gorm:"type:text" json:"investor_note"`
	ChangeType   IOIChangeType `gorm:"size:20;not null" json:"change_type"`
	ChangedAt    time.Time     `gorm:"index" json:"changed_at"`
}

// BeforeCreate stamps the identifier and change time.
func (h *IOIHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now().UTC()
	}
	return nil
}
