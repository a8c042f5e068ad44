package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earlylookhq/earlylook/internal/models"
)

func newBandService(t *testing.T, f *fixtures) *BandService {
	t.Helper()
	svc, err := NewBandService(f.db, f.audit)
	require.NoError(t, err)
	return svc
}

func TestBandAddOrderedLadder(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	deal := f.createDeal(t, issuer.ID, 1_000_000, nil)

	svc := newBandService(t, f)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddBandInput{DealID: deal.ID, Label: "Mid", BandValue: 190, OrderIndex: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddBandInput{DealID: deal.ID, Label: "Low", BandValue: 175, OrderIndex: 1, PERatio: "14.2x"})
	require.NoError(t, err)

	// Same order index twice is rejected.
	_, err = svc.Add(ctx, AddBandInput{DealID: deal.ID, Label: "Clash", BandValue: 200, OrderIndex: 2})
	require.Error(t, err)

	bands, err := svc.List(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, bands, 2)
	require.Equal(t, "Low", bands[0].Label)
	require.Equal(t, "Mid", bands[1].Label)
}

func TestBandAddLockedAfterOpen(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	deal, _ := f.openDealWithBands(t, issuer.ID, 1_000_000, nil, 10, 20, 30)

	svc := newBandService(t, f)

	_, err := svc.Add(context.Background(), AddBandInput{
		DealID: deal.ID, Label: "Late", BandValue: 40, OrderIndex: 4,
	})
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestBandDeleteGuards(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")

	svc := newBandService(t, f)
	ctx := context.Background()

	// Draft deal without indications: delete succeeds.
	draft := f.createDeal(t, issuer.ID, 1_000_000, nil)
	draftBands := f.addBands(t, draft.ID, 10, 20, 30)
	require.NoError(t, svc.Delete(ctx, draftBands[2].ID))

	// Referenced band: delete refused even if the deal were re-drafted.
	deal, bands := f.openDealWithBands(t, issuer.ID, 1_000_000, nil, 10, 20, 30)
	f.acceptInvitation(t, deal.ID, investor)

	iois := newIOIService(t, f)
	_, err := iois.Submit(ctx, SubmitIOIInput{
		DealID: deal.ID, InvestorUserID: investor.ID, BandID: bands[0].ID, Amount: 100,
	})
	require.NoError(t, err)

	// Open deal: structural edits are refused outright.
	err = svc.Delete(ctx, bands[0].ID)
	require.ErrorIs(t, err, ErrInvalidStateTransition)

	require.NoError(t, f.db.Model(&models.Deal{}).
		Where("id = ?", deal.ID).
		Update("status", models.DealStatusDraft).Error)

	err = svc.Delete(ctx, bands[0].ID)
	require.ErrorIs(t, err, ErrBandHasIOIs)
}
