package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
)

func openMigrated(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func seedDealGraph(t *testing.T, db *gorm.DB) (*models.Deal, *models.Band, *models.User) {
	t.Helper()

	owner := &models.User{Email: "owner@example.com", PasswordHash: "x", Role: models.RoleIssuer}
	require.NoError(t, db.Create(owner).Error)

	issuer := &models.Issuer{OrgName: "Acme", OwnerUserID: owner.ID}
	require.NoError(t, db.Create(issuer).Error)

	deal := &models.Deal{
		IssuerID:     issuer.ID,
		Name:         "Deal",
		DealType:     models.DealTypeEquity,
		Currency:     "AED",
		TargetAmount: 1_000_000,
		Status:       models.DealStatusOpen,
	}
	require.NoError(t, db.Create(deal).Error)

	band := &models.Band{DealID: deal.ID, Label: "Low", BandValue: 10, OrderIndex: 1}
	require.NoError(t, db.Create(band).Error)

	investor := &models.User{Email: "inv@example.com", PasswordHash: "x", Role: models.RoleInvestor}
	require.NoError(t, db.Create(investor).Error)

	return deal, band, investor
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestActiveIOIUniquenessEnforcedByIndex(t *testing.T) {
	db := openMigrated(t)
	deal, band, investor := seedDealGraph(t, db)

	first := &models.IOI{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         band.ID,
		Amount:         100,
		Strength:       models.StrengthSoft,
		Active:         models.ActiveTrue(),
	}
	require.NoError(t, db.Create(first).Error)

	// A second live row for the same triple violates the composite index.
	dup := &models.IOI{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         band.ID,
		Amount:         200,
		Strength:       models.StrengthSoft,
		Active:         models.ActiveTrue(),
	}
	require.Error(t, db.Create(dup).Error)

	// NULL active rows never collide: any number of withdrawn rows may share a triple.
	require.NoError(t, db.Model(first).Update("active", gorm.Expr("NULL")).Error)

	for i := 0; i < 2; i++ {
		withdrawn := &models.IOI{
			DealID:         deal.ID,
			InvestorUserID: investor.ID,
			BandID:         band.ID,
			Amount:         300,
			Strength:       models.StrengthSoft,
		}
		require.NoError(t, db.Create(withdrawn).Error)
	}

	// And a new live row is accepted again.
	require.NoError(t, db.Create(&models.IOI{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         band.ID,
		Amount:         400,
		Strength:       models.StrengthSoft,
		Active:         models.ActiveTrue(),
	}).Error)
}

func TestBandOrderUniquePerDeal(t *testing.T) {
	db := openMigrated(t)
	deal, _, _ := seedDealGraph(t, db)

	err := db.Create(&models.Band{DealID: deal.ID, Label: "Clash", BandValue: 20, OrderIndex: 1}).Error
	require.Error(t, err)

	require.NoError(t, db.Create(&models.Band{DealID: deal.ID, Label: "Mid", BandValue: 20, OrderIndex: 2}).Error)
}

func TestInvitationInviteeUniquePerDeal(t *testing.T) {
	db := openMigrated(t)
	deal, _, _ := seedDealGraph(t, db)

	invite := func(token string) error {
		return db.Create(&models.Invitation{
			DealID:        deal.ID,
			InvestorEmail: "fund@example.com",
			InvestorName:  "Fund",
			Token:         token,
			ExpiresAt:     time.Now().Add(time.Hour),
			Status:        models.InvitationPending,
		}).Error
	}

	require.NoError(t, invite("token-one"))
	require.Error(t, invite("token-two"))
}
