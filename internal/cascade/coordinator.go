// Package cascade removes the dependent records beneath a profile or a
// campaign when it is deleted.
//
// The store offers no transaction spanning the object graph, so cascades are
// best-effort sequential: children first, parent last, every per-record
// delete idempotent. A create racing an in-flight cascade can slip a child
// in after its parent's enumeration; that window is accepted and a follow-up
// cascade (or the next delete of the parent) cleans it up.
package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/fundraiser-tracker/internal/pkg/distlock"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// lockTTL bounds how long a crashed cascade can hold its lock.
const lockTTL = time.Minute

// Coordinator walks the object graph downward on delete.
type Coordinator struct {
	store storage.Store
	locks *distlock.Manager
}

// NewCoordinator builds a Coordinator over the store.
func NewCoordinator(store storage.Store, locks *distlock.Manager) *Coordinator {
	if locks == nil {
		locks = distlock.NewManager(nil)
	}
	return &Coordinator{store: store, locks: locks}
}

// DeleteProfile removes, in order: all orders under all the profile's
// campaigns, the campaigns, the shares, the invites, and finally the profile
// record itself. Children that are already gone don't fail the cascade; a
// per-record failure is retried once and then logged and skipped, but the
// profile record is only removed after every enumerated child has been
// processed.
func (c *Coordinator) DeleteProfile(ctx context.Context, profileID string) error {
	// Serialize cascades over the same profile. Every child delete is
	// idempotent, so a second cascade running anyway is wasted work and
	// noise, not corruption; when the lock can't be taken we proceed.
	lock := c.locks.Lock("cascade:profile:"+profileID, lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		logger.Warn("cascade lock unavailable", "profile_id", profileID, "error", err.Error())
	} else if !acquired {
		logger.Warn("concurrent cascade detected, proceeding", "profile_id", profileID)
	} else {
		defer lock.Release(ctx)
	}

	campaigns, err := c.store.ListCampaignsByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("enumerating campaigns for cascade: %w", err)
	}
	for _, campaign := range campaigns {
		if err := c.DeleteCampaign(ctx, campaign.ID); err != nil {
			return fmt.Errorf("cascading campaign %s: %w", campaign.ID, err)
		}
	}

	// Orders are indexed by profile as well; sweep the denormalized index
	// to catch orders whose campaign record was already gone.
	orders, err := c.store.ListOrdersByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("enumerating profile orders for cascade: %w", err)
	}
	for _, order := range orders {
		c.deleteRecord(ctx, "order", order.ID, func() error {
			return c.store.DeleteOrder(ctx, order.ID)
		})
	}

	shares, err := c.store.ListSharesByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("enumerating shares for cascade: %w", err)
	}
	for _, share := range shares {
		target := share.TargetAccountID
		c.deleteRecord(ctx, "share", profileID+"/"+target, func() error {
			return c.store.DeleteShare(ctx, profileID, target)
		})
	}

	invites, err := c.store.ListInvitesByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("enumerating invites for cascade: %w", err)
	}
	for _, inv := range invites {
		code := inv.Code
		c.deleteRecord(ctx, "invite", code, func() error {
			return c.store.DeleteInvite(ctx, code)
		})
	}

	if err := c.store.DeleteProfile(ctx, profileID); err != nil {
		return fmt.Errorf("deleting profile record: %w", err)
	}

	logger.Info("profile cascade complete", "profile_id", profileID,
		"campaigns", len(campaigns), "orders", len(orders),
		"shares", len(shares), "invites", len(invites))
	return nil
}

// DeleteCampaign removes the campaign's orders, then the campaign record.
// Deleting an absent campaign succeeds.
func (c *Coordinator) DeleteCampaign(ctx context.Context, campaignID string) error {
	orders, err := c.store.ListOrdersByCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("enumerating orders for cascade: %w", err)
	}
	for _, order := range orders {
		id := order.ID
		c.deleteRecord(ctx, "order", id, func() error {
			return c.store.DeleteOrder(ctx, id)
		})
	}

	if err := c.store.DeleteCampaign(ctx, campaignID); err != nil {
		return fmt.Errorf("deleting campaign record: %w", err)
	}
	return nil
}

// deleteRecord runs an idempotent child delete with one retry. Failures
// after the retry are logged, not raised: the cascade keeps going and the
// orphaned record is picked up by the next cascade over the same parent.
func (c *Coordinator) deleteRecord(ctx context.Context, kind, id string, del func() error) {
	err := del()
	if err == nil {
		return
	}
	logger.Warn("cascade delete failed, retrying", "kind", kind, "id", id, "error", err.Error())
	if err := del(); err != nil {
		logger.Error("cascade delete failed after retry", "kind", kind, "id", id, "error", err.Error())
	}
}
