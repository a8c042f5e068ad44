package database

import (
	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
//
// The composite unique indexes declared on Band (deal_id, order_index) and IOI
// (deal_id, investor_user_id, band_id, active) are load-bearing: services rely
// on the database rejecting duplicates even under concurrent writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Issuer{},
		&models.Investor{},
		&models.Deal{},
		&models.Band{},
		&models.Invitation{},
		&models.IOI{},
		&models.IOIHistory{},
		&models.FeedbackNote{},
		&models.AuditLog{},
	)
}
