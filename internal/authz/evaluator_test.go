package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

func seedProfile(t *testing.T, store *storage.MemoryStore, id, owner string) {
	t.Helper()
	require.NoError(t, store.PutProfile(context.Background(), &domain.Profile{
		ID:             id,
		OwnerAccountID: owner,
		Name:           "Band Boosters",
	}))
}

func seedShare(t *testing.T, store *storage.MemoryStore, profileID, account string, perms domain.PermissionSet) {
	t.Helper()
	require.NoError(t, store.PutShare(context.Background(), &domain.Share{
		ProfileID:       profileID,
		TargetAccountID: account,
		Permissions:     perms,
	}))
}

func TestEvaluateOwnerAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedProfile(t, store, "p1", "acct-owner")
	eval := NewEvaluator(store, store, nil)

	for _, required := range []domain.Permission{domain.PermissionRead, domain.PermissionWrite} {
		decision, err := eval.Evaluate(ctx, "acct-owner", "p1", required)
		require.NoError(t, err)
		assert.Equal(t, Allow, decision)
	}
}

func TestEvaluateStrangerDenied(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedProfile(t, store, "p1", "acct-owner")
	eval := NewEvaluator(store, store, nil)

	decision, err := eval.Evaluate(ctx, "acct-stranger", "p1", domain.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestEvaluateMissingProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	eval := NewEvaluator(store, store, nil)

	decision, err := eval.Evaluate(ctx, "acct-1", "nope", domain.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, Missing, decision)
}

func TestEvaluateShareLevels(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedProfile(t, store, "p1", "acct-owner")
	seedShare(t, store, "p1", "acct-reader", domain.PermissionSet{domain.PermissionRead})
	seedShare(t, store, "p1", "acct-writer", domain.PermissionSet{domain.PermissionWrite})
	eval := NewEvaluator(store, store, nil)

	tests := []struct {
		name     string
		account  string
		required domain.Permission
		want     Decision
	}{
		{"reader can read", "acct-reader", domain.PermissionRead, Allow},
		{"reader cannot write", "acct-reader", domain.PermissionWrite, Deny},
		{"writer can write", "acct-writer", domain.PermissionWrite, Allow},
		{"writer can read", "acct-writer", domain.PermissionRead, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := eval.Evaluate(ctx, tt.account, "p1", tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestEvaluateRevokeTakesEffect(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedProfile(t, store, "p1", "acct-owner")
	seedShare(t, store, "p1", "acct-helper", domain.PermissionSet{domain.PermissionRead})
	eval := NewEvaluator(store, store, nil)

	decision, err := eval.Evaluate(ctx, "acct-helper", "p1", domain.PermissionRead)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)

	require.NoError(t, store.DeleteShare(ctx, "p1", "acct-helper"))

	decision, err = eval.Evaluate(ctx, "acct-helper", "p1", domain.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestEvaluateOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedProfile(t, store, "p1", "acct-owner")
	// A full WRITE share must not satisfy owner-only checks
	seedShare(t, store, "p1", "acct-helper", domain.PermissionSet{domain.PermissionRead, domain.PermissionWrite})
	eval := NewEvaluator(store, store, nil)

	decision, err := eval.EvaluateOwner(ctx, "acct-owner", "p1")
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	decision, err = eval.EvaluateOwner(ctx, "acct-helper", "p1")
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)

	decision, err = eval.EvaluateOwner(ctx, "acct-owner", "gone")
	require.NoError(t, err)
	assert.Equal(t, Missing, decision)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "missing", Missing.String())
}
