package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDemandSummaryAggregatesLiveBook(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	alice := f.createInvestor(t, "alice@example.com")
	bob := f.createInvestor(t, "bob@example.com")

	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175_000_000, 190_000_000, 225_000_000)
	f.acceptInvitation(t, deal.ID, alice)
	f.acceptInvitation(t, deal.ID, bob)

	iois := newIOIService(t, f)
	demand, err := NewDemandService(f.db)
	require.NoError(t, err)

	ctx := context.Background()

	aliceIOI, err := iois.Submit(ctx, SubmitIOIInput{
		DealID: deal.ID, InvestorUserID: alice.ID, BandID: bands[1].ID, Amount: 2_500_000,
	})
	require.NoError(t, err)
	_, err = iois.Submit(ctx, SubmitIOIInput{
		DealID: deal.ID, InvestorUserID: bob.ID, BandID: bands[1].ID, Amount: 5_000_000,
	})
	require.NoError(t, err)

	summary, err := demand.Summary(ctx, deal.ID)
	require.NoError(t, err)

	require.Equal(t, 7_500_000.0, summary.TotalDemand)
	require.EqualValues(t, 2, summary.TotalBids)
	require.InDelta(t, 0.375, summary.OverallCoverage, 1e-9)

	require.Len(t, summary.Bands, 3)
	require.Equal(t, bands[0].ID, summary.Bands[0].BandID)
	require.Zero(t, summary.Bands[0].Demand)
	require.Zero(t, summary.Bands[0].BidCount)

	mid := summary.Bands[1]
	require.Equal(t, 7_500_000.0, mid.Demand)
	require.EqualValues(t, 2, mid.BidCount)
	require.InDelta(t, 0.375, mid.Coverage, 1e-9)

	// A withdrawal drops out of every aggregate immediately.
	require.NoError(t, iois.Withdraw(ctx, aliceIOI.ID, alice.ID))

	summary, err = demand.Summary(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, 5_000_000.0, summary.TotalDemand)
	require.EqualValues(t, 1, summary.TotalBids)
	require.InDelta(t, 0.25, summary.OverallCoverage, 1e-9)
	require.EqualValues(t, 1, summary.Bands[1].BidCount)
}

func TestDemandSummaryZeroTargetReportsZeroCoverage(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")

	deal, bands := f.openDealWithBands(t, issuer.ID, 0, nil, 10, 20, 30)
	f.acceptInvitation(t, deal.ID, investor)

	iois := newIOIService(t, f)
	demand, err := NewDemandService(f.db)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = iois.Submit(ctx, SubmitIOIInput{
		DealID: deal.ID, InvestorUserID: investor.ID, BandID: bands[0].ID, Amount: 1_000,
	})
	require.NoError(t, err)

	summary, err := demand.Summary(ctx, deal.ID)
	require.NoError(t, err)
	require.Equal(t, 1_000.0, summary.TotalDemand)
	require.Zero(t, summary.OverallCoverage)
	require.Zero(t, summary.Bands[0].Coverage)
}

func TestDemandSummaryUnknownDeal(t *testing.T) {
	f := newFixtures(t)

	demand, err := NewDemandService(f.db)
	require.NoError(t, err)

	_, err = demand.Summary(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrDealNotFound)
}
