package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/database/testutil"
	"github.com/earlylookhq/earlylook/internal/middleware"
	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
)

type dealHandlerEnv struct {
	db      *gorm.DB
	handler *DealHandler
	user    *models.User
	deal    *models.Deal
	bands   []models.Band
}

func newDealHandlerEnv(t *testing.T, status models.DealStatus) *dealHandlerEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	user := &models.User{Email: "issuer@example.com", PasswordHash: "x", Role: models.RoleIssuer, DisplayName: "Issuer"}
	require.NoError(t, db.Create(user).Error)
	issuer := &models.Issuer{OrgName: "Acme", OwnerUserID: user.ID}
	require.NoError(t, db.Create(issuer).Error)

	deal := &models.Deal{
		IssuerID:     issuer.ID,
		Name:         "Deal",
		DealType:     models.DealTypeEquity,
		Currency:     "AED",
		TargetAmount: 1_000_000,
		Status:       status,
	}
	require.NoError(t, db.Create(deal).Error)

	bands := make([]models.Band, 0, 3)
	for i, value := range []float64{175, 190, 225} {
		band := models.Band{DealID: deal.ID, Label: fmt.Sprintf("Band %d", i+1), BandValue: value, OrderIndex: i + 1}
		require.NoError(t, db.Create(&band).Error)
		bands = append(bands, band)
	}

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	access, err := services.NewAccessService(db)
	require.NoError(t, err)
	users, err := services.NewUserService(db, audit)
	require.NoError(t, err)
	deals, err := services.NewDealService(db, audit)
	require.NoError(t, err)
	demand, err := services.NewDemandService(db)
	require.NoError(t, err)

	return &dealHandlerEnv{
		db:      db,
		handler: NewDealHandler(deals, demand, users, access),
		user:    user,
		deal:    deal,
		bands:   bands,
	}
}

func (e *dealHandlerEnv) postJSON(t *testing.T, dealID string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: dealID}}
	c.Set(middleware.CtxUserIDKey, e.user.ID)
	c.Set(middleware.CtxRoleKey, models.RoleIssuer)

	e.handler.SetRange(c)
	return rec
}

func TestDealHandlerSetRangeRequiresClosedDeal(t *testing.T) {
	env := newDealHandlerEnv(t, models.DealStatusOpen)

	rec := env.postJSON(t, env.deal.ID, gin.H{
		"low_band_id":  env.bands[0].ID,
		"high_band_id": env.bands[1].ID,
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var stored models.Deal
	require.NoError(t, env.db.First(&stored, "id = ?", env.deal.ID).Error)
	require.Nil(t, stored.RangeLowBandID)
}

func TestDealHandlerSetRangeOnClosedDeal(t *testing.T) {
	env := newDealHandlerEnv(t, models.DealStatusClosed)
	now := time.Now().UTC()
	require.NoError(t, env.db.Model(env.deal).Update("closed_at", now).Error)

	// Submitted high-to-low; stored normalised.
	rec := env.postJSON(t, env.deal.ID, gin.H{
		"low_band_id":  env.bands[2].ID,
		"high_band_id": env.bands[1].ID,
		"description":  "final indicative range",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, true, payload["success"])

	var stored models.Deal
	require.NoError(t, env.db.First(&stored, "id = ?", env.deal.ID).Error)
	require.NotNil(t, stored.RangeLowBandID)
	require.Equal(t, env.bands[1].ID, *stored.RangeLowBandID)
	require.Equal(t, env.bands[2].ID, *stored.RangeHighBandID)
}

func TestDealHandlerSetRangeForeignUser(t *testing.T) {
	env := newDealHandlerEnv(t, models.DealStatusClosed)

	stranger := &models.User{Email: "stranger@example.com", PasswordHash: "x", Role: models.RoleIssuer}
	require.NoError(t, env.db.Create(stranger).Error)
	require.NoError(t, env.db.Create(&models.Issuer{OrgName: "Rival", OwnerUserID: stranger.ID}).Error)
	env.user = stranger

	rec := env.postJSON(t, env.deal.ID, gin.H{
		"low_band_id":  env.bands[0].ID,
		"high_band_id": env.bands[1].ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
