package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/database/testutil"
	"github.com/earlylookhq/earlylook/internal/models"
)

type fixtures struct {
	db     *gorm.DB
	audit  *AuditService
	access *AccessService
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	access, err := NewAccessService(db)
	require.NoError(t, err)

	return &fixtures{db: db, audit: audit, access: access}
}

func (f *fixtures) createIssuer(t *testing.T, email string) (*models.User, *models.Issuer) {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleIssuer,
		DisplayName:  "Issuer " + email,
	}
	require.NoError(t, f.db.Create(user).Error)

	issuer := &models.Issuer{
		OrgName:     "Org " + email,
		OwnerUserID: user.ID,
	}
	require.NoError(t, f.db.Create(issuer).Error)

	return user, issuer
}

func (f *fixtures) createInvestor(t *testing.T, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleInvestor,
		DisplayName:  "Investor " + email,
	}
	require.NoError(t, f.db.Create(user).Error)

	require.NoError(t, f.db.Create(&models.Investor{
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		InvestorType: models.InvestorInstitutional,
	}).Error)

	return user
}

func (f *fixtures) createDeal(t *testing.T, issuerID string, target float64, maxIOI *float64) *models.Deal {
	t.Helper()

	deal := &models.Deal{
		IssuerID:     issuerID,
		Name:         "Deal " + uuid.NewString()[:8],
		DealType:     models.DealTypeEquity,
		Currency:     "AED",
		TargetAmount: target,
		Status:       models.DealStatusDraft,
		MaxIOIAmount: maxIOI,
	}
	require.NoError(t, f.db.Create(deal).Error)
	return deal
}

func (f *fixtures) addBands(t *testing.T, dealID string, values ...float64) []models.Band {
	t.Helper()

	bands := make([]models.Band, 0, len(values))
	for i, value := range values {
		band := models.Band{
			DealID:     dealID,
			Label:      "Band " + string(rune('A'+i)),
			BandValue:  value,
			OrderIndex: i + 1,
		}
		require.NoError(t, f.db.Create(&band).Error)
		bands = append(bands, band)
	}
	return bands
}

// openDealWithBands provisions a deal already transitioned into the open state.
func (f *fixtures) openDealWithBands(t *testing.T, issuerID string, target float64, maxIOI *float64, values ...float64) (*models.Deal, []models.Band) {
	t.Helper()

	deal := f.createDeal(t, issuerID, target, maxIOI)
	bands := f.addBands(t, deal.ID, values...)

	now := time.Now().UTC()
	require.NoError(t, f.db.Model(deal).Updates(map[string]any{
		"status":   models.DealStatusOpen,
		"start_at": now,
	}).Error)
	deal.Status = models.DealStatusOpen
	deal.StartAt = &now

	return deal, bands
}

// acceptInvitation wires an investor into a deal with an accepted invitation.
func (f *fixtures) acceptInvitation(t *testing.T, dealID string, investor *models.User) *models.Invitation {
	t.Helper()

	invitation := &models.Invitation{
		DealID:         dealID,
		InvestorEmail:  investor.Email,
		InvestorName:   investor.DisplayName,
		InvestorType:   models.InvestorInstitutional,
		Token:          uuid.NewString(),
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		Status:         models.InvitationAccepted,
		AcceptedUserID: &investor.ID,
	}
	require.NoError(t, f.db.Create(invitation).Error)
	return invitation
}
