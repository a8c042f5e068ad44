package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earlylookhq/earlylook/internal/models"
)

func TestFeedbackScopeValidation(t *testing.T) {
	f := newFixtures(t)
	issuerUser, issuer := f.createIssuer(t, "issuer@example.com")
	investor := f.createInvestor(t, "investor@example.com")
	deal, bands := f.openDealWithBands(t, issuer.ID, 1_000_000, nil, 10, 20, 30)

	svc, err := NewFeedbackService(f.db, f.audit)
	require.NoError(t, err)
	ctx := context.Background()

	// General note carries no target.
	_, err = svc.Add(ctx, AddFeedbackInput{
		DealID:          deal.ID,
		CreatedByUserID: issuerUser.ID,
		NoteText:        "book building slower than expected",
	})
	require.NoError(t, err)

	// Scoped notes require a target.
	_, err = svc.Add(ctx, AddFeedbackInput{
		DealID:          deal.ID,
		CreatedByUserID: issuerUser.ID,
		Scope:           models.FeedbackScopeBand,
		NoteText:        "resistance above this level",
	})
	require.Error(t, err)

	_, err = svc.Add(ctx, AddFeedbackInput{
		DealID:          deal.ID,
		CreatedByUserID: issuerUser.ID,
		Scope:           models.FeedbackScopeBand,
		ScopeID:         &bands[2].ID,
		NoteText:        "resistance above this level",
	})
	require.NoError(t, err)

	// General note must not name a target.
	_, err = svc.Add(ctx, AddFeedbackInput{
		DealID:          deal.ID,
		CreatedByUserID: issuerUser.ID,
		Scope:           models.FeedbackScopeGeneral,
		ScopeID:         &investor.ID,
		NoteText:        "misplaced target",
	})
	require.Error(t, err)

	notes, err := svc.List(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	// Newest first.
	require.Equal(t, models.FeedbackScopeBand, notes[0].Scope)
}
