package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earlylookhq/earlylook/internal/auditctx"
)

func TestAuditLogAndList(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	user, _ := f.createIssuer(t, "issuer@example.com")
	userID := user.ID
	require.NoError(t, f.audit.Log(ctx, AuditEntry{
		UserID:   &userID,
		Action:   "deal.create",
		Resource: "deal-1",
		Result:   "success",
		Metadata: map[string]any{"name": "Deal"},
	}))
	require.NoError(t, f.audit.Log(ctx, AuditEntry{
		Action:   "ioi.create",
		Resource: "ioi-1",
		Result:   "success",
	}))

	// Missing action or result is refused.
	require.Error(t, f.audit.Log(ctx, AuditEntry{Result: "success"}))
	require.Error(t, f.audit.Log(ctx, AuditEntry{Action: "deal.create"}))

	logs, err := f.audit.List(ctx, AuditFilters{})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	logs, err = f.audit.List(ctx, AuditFilters{Action: "deal.create"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].UserID)
	require.Equal(t, userID, *logs[0].UserID)
	require.Contains(t, logs[0].Metadata, "Deal")
}

func TestAuditActorFallsBackToContext(t *testing.T) {
	f := newFixtures(t)
	actor := f.createInvestor(t, "actor@example.com")

	ctx := auditctx.WithActor(context.Background(), auditctx.Actor{UserID: actor.ID})
	require.NoError(t, f.audit.Log(ctx, AuditEntry{
		Action:   "invitation.create",
		Resource: "inv-1",
		Result:   "success",
	}))

	logs, err := f.audit.List(context.Background(), AuditFilters{UserID: actor.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}
