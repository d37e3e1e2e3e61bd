package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/fundraiser-tracker/internal/authz"
	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

const (
	ownerAcct    = "acct-owner"
	helperAcct   = "acct-helper"
	strangerAcct = "acct-stranger"
)

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := New(Config{Store: store})
	return svc, store
}

func createProfile(t *testing.T, svc *Service, owner, name string) *domain.Profile {
	t.Helper()
	profile, err := svc.CreateProfile(context.Background(), owner, ProfileInput{Name: name})
	require.NoError(t, err)
	return profile
}

func grantShare(t *testing.T, svc *Service, owner, profileID, target string, perms domain.PermissionSet) {
	t.Helper()
	_, err := svc.PutShare(context.Background(), owner, profileID, target, ShareInput{Permissions: perms})
	require.NoError(t, err)
}

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	profile, err := svc.CreateProfile(ctx, ownerAcct, ProfileInput{Name: "Scout Troop 12"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, ownerAcct, profile.OwnerAccountID)

	stored, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	_, err = svc.CreateProfile(ctx, ownerAcct, ProfileInput{})
	assert.True(t, domain.IsValidation(err))
}

func TestGetProfileFailsOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")

	// Owner sees it
	got, err := svc.GetProfile(ctx, ownerAcct, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Stranger gets nil, not an error; same as a nonexistent id
	got, err = svc.GetProfile(ctx, strangerAcct, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.GetProfile(ctx, ownerAcct, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListProfilesIncludesShared(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	own := createProfile(t, svc, helperAcct, "My Own")
	shared := createProfile(t, svc, ownerAcct, "Shared With Me")
	createProfile(t, svc, ownerAcct, "Not Shared")

	grantShare(t, svc, ownerAcct, shared.ID, helperAcct, domain.PermissionSet{domain.PermissionRead})

	profiles, err := svc.ListProfiles(ctx, helperAcct)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	ids := map[string]bool{profiles[0].ID: true, profiles[1].ID: true}
	assert.True(t, ids[own.ID])
	assert.True(t, ids[shared.ID])
}

func TestListProfilesHidesVanishedShare(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	shared := createProfile(t, svc, ownerAcct, "Doomed")
	grantShare(t, svc, ownerAcct, shared.ID, helperAcct, domain.PermissionSet{domain.PermissionRead})

	// Simulate a cascade race: profile record gone, share row still there
	require.NoError(t, store.DeleteProfile(ctx, shared.ID))

	profiles, err := svc.ListProfiles(ctx, helperAcct)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestUpdateProfilePermissions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "Before")
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionRead})

	// READ grantee cannot rename
	_, err := svc.UpdateProfile(ctx, helperAcct, profile.ID, ProfileInput{Name: "After"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Upgrade to WRITE and retry
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionRead, domain.PermissionWrite})
	updated, err := svc.UpdateProfile(ctx, helperAcct, profile.ID, ProfileInput{Name: "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)

	// Mutations against a missing profile fail closed
	_, err = svc.UpdateProfile(ctx, ownerAcct, "nonexistent", ProfileInput{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProfileOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionRead, domain.PermissionWrite})

	// Even a WRITE grantee cannot delete the profile
	err := svc.DeleteProfile(ctx, helperAcct, profile.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, svc.DeleteProfile(ctx, ownerAcct, profile.ID))
	got, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again reports success
	assert.NoError(t, svc.DeleteProfile(ctx, ownerAcct, profile.ID))
}

func TestDeleteProfileCascades(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Fall Drive"})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
		CustomerName: "Dana",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 2, UnitPriceCents: 500}},
	})
	require.NoError(t, err)
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionRead})
	_, err = svc.CreateInvite(ctx, ownerAcct, profile.ID, InviteInput{Permissions: domain.PermissionSet{domain.PermissionRead}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(ctx, ownerAcct, profile.ID))

	campaigns, err := store.ListCampaignsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, campaigns)
	orders, err := store.ListOrdersByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	shares, err := store.ListSharesByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, shares)
	invites, err := store.ListInvitesByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestCampaignDateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{
		Name:      "Backwards",
		StartDate: start,
		EndDate:   start.Add(-24 * time.Hour),
	})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{
		Name:      "Fine",
		StartDate: start,
		EndDate:   start.Add(30 * 24 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestGetCampaignFailsOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)

	got, err := svc.GetCampaign(ctx, ownerAcct, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = svc.GetCampaign(ctx, strangerAcct, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.GetCampaign(ctx, ownerAcct, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteCampaignCascadesOrders(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
		CustomerName: "Dana",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
	})
	require.NoError(t, err)

	// A stranger cannot delete an existing campaign
	err = svc.DeleteCampaign(ctx, strangerAcct, campaign.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, svc.DeleteCampaign(ctx, ownerAcct, campaign.ID))

	orders, err := store.ListOrdersByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// Idempotent
	assert.NoError(t, svc.DeleteCampaign(ctx, ownerAcct, campaign.ID))
}

func TestDeleteCampaignCreateOrderRace(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	// The delete cascade and a concurrent order create may interleave so
	// that an order lands after its campaign's orders were swept. The
	// contract is that the follow-up profile cascade settles the graph
	// clean, not that the orphan never exists.
	for i := 0; i < 20; i++ {
		profile := createProfile(t, svc, ownerAcct, "Racy PTA")
		campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Racy Drive"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.DeleteCampaign(ctx, ownerAcct, campaign.ID)
		}()
		go func() {
			defer wg.Done()
			// May fail with not-found when the delete wins; both outcomes
			// are legal
			_, _ = svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
				CustomerName: "Dana",
				LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
			})
		}()
		wg.Wait()

		require.NoError(t, svc.DeleteProfile(ctx, ownerAcct, profile.ID))

		orders, err := store.ListOrdersByCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Empty(t, orders, "round %d left orphaned orders", i)
		orders, err = store.ListOrdersByProfile(ctx, profile.ID)
		require.NoError(t, err)
		assert.Empty(t, orders, "round %d left orders under the profile", i)
	}
}

func TestCreateOrderComputesTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
		CustomerName: "Dana",
		LineItems: []domain.LineItem{
			{ProductID: "sku-1", Quantity: 3, UnitPriceCents: 1200},
			{ProductID: "sku-2", Quantity: 1, UnitPriceCents: 1500},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5100), order.TotalCents)
	assert.Equal(t, profile.ID, order.ProfileID)
}

func TestCreateOrderAgainstMissingCampaign(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateOrder(ctx, ownerAcct, "vanished", OrderInput{
		CustomerName: "Dana",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)

	bad := []OrderInput{
		{LineItems: []domain.LineItem{{ProductID: "sku-1", Quantity: 1}}},
		{CustomerName: "Dana"},
		{CustomerName: "Dana", LineItems: []domain.LineItem{{Quantity: 1}}},
		{CustomerName: "Dana", LineItems: []domain.LineItem{{ProductID: "sku-1", Quantity: 0}}},
		{CustomerName: "Dana", LineItems: []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: -5}}},
	}
	for _, input := range bad {
		_, err := svc.CreateOrder(ctx, ownerAcct, campaign.ID, input)
		assert.True(t, domain.IsValidation(err), "input %+v should fail validation", input)
	}
}

func TestUpdateOrderRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)
	order, err := svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
		CustomerName: "Dana",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(ctx, ownerAcct, order.ID, OrderInput{
		CustomerName: "Dana R",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 5, UnitPriceCents: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.TotalCents)
	assert.Equal(t, "Dana R", updated.CustomerName)
}

func TestDeleteOrderIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	assert.NoError(t, svc.DeleteOrder(ctx, ownerAcct, "never-existed"))
}

func TestListOrdersFailsOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)

	orders, err := svc.ListOrdersByCampaign(ctx, strangerAcct, campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, err = svc.ListOrdersByProfile(ctx, strangerAcct, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPutShareRules(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")

	// Granting to the owner is rejected: owner access is implicit
	_, err := svc.PutShare(ctx, ownerAcct, profile.ID, ownerAcct, ShareInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.PutShare(ctx, ownerAcct, profile.ID, helperAcct, ShareInput{})
	assert.True(t, domain.IsValidation(err))

	// A WRITE grantee may grant further shares
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionWrite})
	_, err = svc.PutShare(ctx, helperAcct, profile.ID, strangerAcct, ShareInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	assert.NoError(t, err)

	// But a READ grantee may not
	_, err = svc.PutShare(ctx, strangerAcct, profile.ID, "acct-other", ShareInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRevokeShareOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionWrite})
	grantShare(t, svc, ownerAcct, profile.ID, strangerAcct, domain.PermissionSet{domain.PermissionRead})

	// WRITE grantee cannot revoke
	err := svc.RevokeShare(ctx, helperAcct, profile.ID, strangerAcct)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, svc.RevokeShare(ctx, ownerAcct, profile.ID, strangerAcct))
	share, err := store.GetShare(ctx, profile.ID, strangerAcct)
	require.NoError(t, err)
	assert.Nil(t, share)

	// Revoking an absent grant succeeds
	assert.NoError(t, svc.RevokeShare(ctx, ownerAcct, profile.ID, strangerAcct))

	// The revoked account lost access immediately
	got, err := svc.GetProfile(ctx, strangerAcct, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInviteEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")

	inv, err := svc.CreateInvite(ctx, ownerAcct, profile.ID, InviteInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	require.NoError(t, err)

	// Before redemption the helper sees nothing
	got, err := svc.GetProfile(ctx, helperAcct, profile.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	share, err := svc.RedeemInvite(ctx, helperAcct, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, share.ProfileID)

	got, err = svc.GetProfile(ctx, helperAcct, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Second redemption by anyone fails
	_, err = svc.RedeemInvite(ctx, strangerAcct, inv.Code)
	assert.ErrorIs(t, err, domain.ErrInviteAlreadyUsed)
}

func TestListInvitesOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	grantShare(t, svc, ownerAcct, profile.ID, helperAcct, domain.PermissionSet{domain.PermissionWrite})
	_, err := svc.CreateInvite(ctx, ownerAcct, profile.ID, InviteInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	require.NoError(t, err)

	invites, err := svc.ListInvites(ctx, ownerAcct, profile.ID)
	require.NoError(t, err)
	assert.Len(t, invites, 1)

	// Even a WRITE grantee sees an empty list, same as any outsider
	invites, err = svc.ListInvites(ctx, helperAcct, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestDeleteInvite(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")
	inv, err := svc.CreateInvite(ctx, ownerAcct, profile.ID, InviteInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInvite(ctx, ownerAcct, inv.Code))
	// Absent code is idempotent success
	assert.NoError(t, svc.DeleteInvite(ctx, ownerAcct, inv.Code))

	_, err = svc.RedeemInvite(ctx, helperAcct, inv.Code)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeemInvalidatesCachedDenial(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := authz.NewCache(client, time.Minute)

	store := storage.NewMemoryStore()
	svc := New(Config{Store: store, Cache: cache})

	profile := createProfile(t, svc, ownerAcct, "PTA")
	inv, err := svc.CreateInvite(ctx, ownerAcct, profile.ID, InviteInput{
		Permissions: domain.PermissionSet{domain.PermissionRead},
	})
	require.NoError(t, err)

	// Prime the cache with a denial for the helper
	got, err := svc.GetProfile(ctx, helperAcct, profile.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = svc.RedeemInvite(ctx, helperAcct, inv.Code)
	require.NoError(t, err)

	// The cached denial was invalidated, not served stale
	got, err = svc.GetProfile(ctx, helperAcct, profile.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

type fakeSink struct {
	lastProfile string
	lastOrders  int
}

func (f *fakeSink) WriteOrderReport(ctx context.Context, profile domain.Profile, orders []domain.Order) (string, error) {
	f.lastProfile = profile.ID
	f.lastOrders = len(orders)
	return "https://example.com/report.csv", nil
}

func TestProfileReport(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sink := &fakeSink{}
	svc := New(Config{Store: store, ReportSink: sink})

	profile := createProfile(t, svc, ownerAcct, "PTA")
	campaign, err := svc.CreateCampaign(ctx, ownerAcct, profile.ID, CampaignInput{Name: "Drive"})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, ownerAcct, campaign.ID, OrderInput{
		CustomerName: "Dana",
		LineItems:    []domain.LineItem{{ProductID: "sku-1", Quantity: 1, UnitPriceCents: 100}},
	})
	require.NoError(t, err)

	url, err := svc.ProfileReport(ctx, ownerAcct, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/report.csv", url)
	assert.Equal(t, profile.ID, sink.lastProfile)
	assert.Equal(t, 1, sink.lastOrders)

	// Fail-open: a stranger gets an empty URL, no error
	url, err = svc.ProfileReport(ctx, strangerAcct, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestProfileReportNoSink(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	profile := createProfile(t, svc, ownerAcct, "PTA")

	_, err := svc.ProfileReport(ctx, ownerAcct, profile.ID)
	assert.True(t, domain.IsValidation(err))
}
