package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earlylookhq/earlylook/internal/models"
)

func newIOIService(t *testing.T, f *fixtures) *IOIService {
	t.Helper()
	svc, err := NewIOIService(f.db, f.access, f.audit)
	require.NoError(t, err)
	return svc
}

func TestIOISubmitCreatesLedgerEntry(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)

	ioi, err := svc.Submit(context.Background(), SubmitIOIInput{
		DealID:             deal.ID,
		InvestorUserID:     investor.ID,
		BandID:             bands[0].ID,
		Amount:             2_500_000,
		Strength:           models.StrengthStrong,
		AnchorFlag:         true,
		DisclaimerAccepted: true,
	})
	require.NoError(t, err)
	require.True(t, ioi.IsActive)
	require.Equal(t, 2_500_000.0, ioi.Amount)

	history, err := svc.History(context.Background(), ioi.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.IOIChangeCreate, history[0].ChangeType)
	require.Equal(t, 2_500_000.0, history[0].Amount)
}

func TestIOISubmitSameBandRevisesInsteadOfDuplicating(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[1].ID,
		Amount:         1_000_000,
	})
	require.NoError(t, err)

	second, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[1].ID,
		Amount:         4_000_000,
		Strength:       models.StrengthStrong,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 4_000_000.0, second.Amount)
	require.Equal(t, models.StrengthStrong, second.Strength)

	var live int64
	require.NoError(t, f.db.Model(&models.IOI{}).
		Where("deal_id = ? AND investor_user_id = ? AND band_id = ? AND active = ?",
			deal.ID, investor.ID, bands[1].ID, true).
		Count(&live).Error)
	require.EqualValues(t, 1, live)

	history, err := svc.History(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.IOIChangeCreate, history[0].ChangeType)
	require.Equal(t, models.IOIChangeUpdate, history[1].ChangeType)
	// The update snapshot preserves the pre-revision amount.
	require.Equal(t, 1_000_000.0, history[1].Amount)
}

func TestIOISubmitAllowsDifferentBands(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)
	ctx := context.Background()

	for _, band := range bands {
		_, err := svc.Submit(ctx, SubmitIOIInput{
			DealID:         deal.ID,
			InvestorUserID: investor.ID,
			BandID:         band.ID,
			Amount:         500_000,
		})
		require.NoError(t, err)
	}

	iois, err := svc.ListForInvestor(ctx, deal.ID, investor.ID)
	require.NoError(t, err)
	require.Len(t, iois, 3)
}

func TestIOIWithdrawThenResubmit(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)
	ctx := context.Background()

	original, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[0].ID,
		Amount:         2_500_000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(ctx, original.ID, investor.ID))

	history, err := svc.History(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.IOIChangeDelete, history[1].ChangeType)

	// Withdrawing again finds no active row.
	err = svc.Withdraw(ctx, original.ID, investor.ID)
	require.ErrorIs(t, err, ErrIOINotFound)

	// The triple is free again; a fresh submission creates a new ledger row.
	fresh, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[0].ID,
		Amount:         3_000_000,
	})
	require.NoError(t, err)
	require.NotEqual(t, original.ID, fresh.ID)

	active, err := svc.ListActive(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, fresh.ID, active[0].ID)
}

func TestIOIWithdrawRequiresOwnership(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	other := f.createInvestor(t, "other@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)
	ctx := context.Background()

	ioi, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[0].ID,
		Amount:         1_000_000,
	})
	require.NoError(t, err)

	err = svc.Withdraw(ctx, ioi.ID, other.ID)
	require.ErrorIs(t, err, ErrIOINotFound)
}

func TestIOISubmitValidationFailures(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	outsider := f.createInvestor(t, "outsider@example.com")

	maxIOI := 1_000_000.0
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, &maxIOI, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	otherDeal, otherBands := f.openDealWithBands(t, issuer.ID, 5_000_000, nil, 10, 20, 30)

	draft := f.createDeal(t, issuer.ID, 5_000_000, nil)
	draftBands := f.addBands(t, draft.ID, 1, 2, 3)

	svc := newIOIService(t, f)
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitIOIInput
		want  error
	}{
		{
			name: "deal missing",
			input: SubmitIOIInput{
				DealID: "00000000-0000-0000-0000-000000000000", InvestorUserID: investor.ID,
				BandID: bands[0].ID, Amount: 100,
			},
			want: ErrDealNotFound,
		},
		{
			name: "deal not open",
			input: SubmitIOIInput{
				DealID: draft.ID, InvestorUserID: investor.ID,
				BandID: draftBands[0].ID, Amount: 100,
			},
			want: ErrDealNotOpen,
		},
		{
			name: "band from another deal",
			input: SubmitIOIInput{
				DealID: deal.ID, InvestorUserID: investor.ID,
				BandID: otherBands[0].ID, Amount: 100,
			},
			want: ErrBandInvalid,
		},
		{
			name: "non-positive amount",
			input: SubmitIOIInput{
				DealID: deal.ID, InvestorUserID: investor.ID,
				BandID: bands[0].ID, Amount: 0,
			},
			want: ErrInvalidAmount,
		},
		{
			name: "amount above cap",
			input: SubmitIOIInput{
				DealID: deal.ID, InvestorUserID: investor.ID,
				BandID: bands[0].ID, Amount: 1_000_001,
			},
			want: ErrAmountExceedsCap,
		},
		{
			name: "investor not invited",
			input: SubmitIOIInput{
				DealID: deal.ID, InvestorUserID: outsider.ID,
				BandID: bands[0].ID, Amount: 100,
			},
			want: ErrNotInvited,
		},
		{
			name: "invitation on another deal does not transfer",
			input: SubmitIOIInput{
				DealID: otherDeal.ID, InvestorUserID: investor.ID,
				BandID: otherBands[0].ID, Amount: 100,
			},
			want: ErrNotInvited,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.input)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}

	// Nothing leaked into the ledger.
	var total int64
	require.NoError(t, f.db.Model(&models.IOI{}).Count(&total).Error)
	require.EqualValues(t, 0, total)
}

func TestIOIWithdrawRejectedOnClosedDeal(t *testing.T) {
	f := newFixtures(t)
	_, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 20_000_000, nil, 175, 190, 225)
	f.acceptInvitation(t, deal.ID, investor)

	svc := newIOIService(t, f)
	ctx := context.Background()

	ioi, err := svc.Submit(ctx, SubmitIOIInput{
		DealID:         deal.ID,
		InvestorUserID: investor.ID,
		BandID:         bands[0].ID,
		Amount:         1_000_000,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Deal{}).
		Where("id = ?", deal.ID).
		Update("status", models.DealStatusClosed).Error)

	err = svc.Withdraw(ctx, ioi.ID, investor.ID)
	require.ErrorIs(t, err, ErrDealNotOpen)

	// The indication stays live in the frozen book.
	active, err := svc.ListActive(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
}
