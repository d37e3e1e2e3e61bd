package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/fundraiser-tracker/internal/domain"
)

func TestMemoryStoreProfileCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Absent profile reads as nil, nil
	got, err := store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	profile := &domain.Profile{ID: "p1", OwnerAccountID: "acct-1", Name: "PTA"}
	require.NoError(t, store.PutProfile(ctx, profile))

	got, err = store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "PTA", got.Name)

	owned, err := store.ListProfilesByOwner(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	require.NoError(t, store.DeleteProfile(ctx, "p1"))
	got, err = store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is a no-op
	require.NoError(t, store.DeleteProfile(ctx, "p1"))
}

func TestMemoryStoreOrderIndexes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orders := []*domain.Order{
		{ID: "o1", CampaignID: "c1", ProfileID: "p1"},
		{ID: "o2", CampaignID: "c1", ProfileID: "p1"},
		{ID: "o3", CampaignID: "c2", ProfileID: "p1"},
		{ID: "o4", CampaignID: "c3", ProfileID: "p2"},
	}
	for _, o := range orders {
		require.NoError(t, store.PutOrder(ctx, o))
	}

	byCampaign, err := store.ListOrdersByCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byCampaign, 2)

	byProfile, err := store.ListOrdersByProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byProfile, 3)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	order := &domain.Order{
		ID:         "o1",
		CampaignID: "c1",
		LineItems:  []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
	}
	require.NoError(t, store.PutOrder(ctx, order))

	got, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	got.LineItems[0].Quantity = 99

	again, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.LineItems[0].Quantity)
}

func TestMemoryStoreShareReplace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	share := &domain.Share{
		ProfileID:       "p1",
		TargetAccountID: "acct-2",
		Permissions:     domain.PermissionSet{domain.PermissionRead},
	}
	require.NoError(t, store.PutShare(ctx, share))

	// Re-granting replaces the permission set, never duplicates the row
	share.Permissions = domain.PermissionSet{domain.PermissionRead, domain.PermissionWrite}
	require.NoError(t, store.PutShare(ctx, share))

	shares, err := store.ListSharesByProfile(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.True(t, shares[0].Permissions.Contains(domain.PermissionWrite))

	byAccount, err := store.ListSharesByAccount(ctx, "acct-2")
	require.NoError(t, err)
	assert.Len(t, byAccount, 1)
}

func TestMarkInviteUsedSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	invite := &domain.Invite{
		Code:      "abc123",
		ProfileID: "p1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.PutInvite(ctx, invite))

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan string, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			account := string(rune('a' + n))
			if err := store.MarkInviteUsed(ctx, "abc123", account); err == nil {
				wins <- account
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	got, err := store.GetInvite(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, got.Used)
	assert.Equal(t, winners[0], got.RedeemedByAccount)
}

func TestMarkInviteUsedAbsentCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.MarkInviteUsed(ctx, "missing", "acct-1")
	assert.ErrorIs(t, err, domain.ErrInviteAlreadyUsed)
}
