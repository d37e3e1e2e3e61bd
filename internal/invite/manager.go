// Package invite manages the lifecycle of single-use, time-limited invite
// codes: issue, look up, redeem, and delete.
//
// Authorization is the caller's job (the operation pipeline checks owner or
// WRITE before invoking the manager); this package owns the state machine
// ACTIVE → REDEEMED | EXPIRED and the single-use guarantee.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// DefaultTTL is the fixed window between invite creation and expiry.
const DefaultTTL = 14 * 24 * time.Hour

// codeBytes yields 20 hex characters per code.
const codeBytes = 10

// maxCodeAttempts bounds collision-checked code generation.
const maxCodeAttempts = 5

// Manager issues and redeems invite codes against the store.
type Manager struct {
	invites storage.InviteRepository
	shares  storage.ShareRepository
	ttl     time.Duration
	now     func() time.Time
}

// NewManager builds a Manager. ttl ≤ 0 falls back to DefaultTTL.
func NewManager(invites storage.InviteRepository, shares storage.ShareRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		invites: invites,
		shares:  shares,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create issues a new invite on the profile granting the given permissions on
// redemption. The code is random and collision-checked against the store;
// codes are never reused, so a used or expired record also blocks reuse of
// its code.
func (m *Manager) Create(ctx context.Context, profileID string, permissions domain.PermissionSet, creatorAccountID string) (*domain.Invite, error) {
	if !permissions.Valid() {
		return nil, domain.NewValidationError("permissions", "must be a non-empty subset of {READ, WRITE}")
	}

	code, err := m.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	inv := &domain.Invite{
		Code:               code,
		ProfileID:          profileID,
		Permissions:        permissions,
		CreatedByAccountID: creatorAccountID,
		CreatedAt:          now,
		ExpiresAt:          now.Add(m.ttl),
		Used:               false,
	}
	if err := m.invites.PutInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("persisting invite: %w", err)
	}

	logger.Info("invite created", "profile_id", profileID, "created_by", creatorAccountID)
	return inv, nil
}

// Redeem consumes the invite for the redeeming account and grants (or
// replaces) the share it carries, attributed to the invite's original
// creator.
//
// Absent, already-used, and expired codes each fail with their own error.
// The used flag flips through a conditional write, so of any set of
// concurrent redeemers exactly one wins; the rest observe already-used.
func (m *Manager) Redeem(ctx context.Context, code, redeemerAccountID string) (*domain.Share, error) {
	inv, err := m.invites.GetInvite(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("loading invite: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	switch inv.State(m.now()) {
	case domain.InviteRedeemed:
		return nil, domain.ErrInviteAlreadyUsed
	case domain.InviteExpired:
		return nil, domain.ErrInviteExpired
	}

	if err := m.invites.MarkInviteUsed(ctx, code, redeemerAccountID); err != nil {
		return nil, err
	}

	share := &domain.Share{
		ProfileID:          inv.ProfileID,
		TargetAccountID:    redeemerAccountID,
		Permissions:        inv.Permissions,
		CreatedByAccountID: inv.CreatedByAccountID,
		CreatedAt:          m.now().UTC(),
	}
	if err := m.shares.PutShare(ctx, share); err != nil {
		// The invite is consumed but the grant didn't land. Surface the
		// error; the owner can issue a direct share to recover.
		return nil, fmt.Errorf("persisting share for redeemed invite %s: %w", code, err)
	}

	logger.Info("invite redeemed", "profile_id", inv.ProfileID, "redeemed_by", redeemerAccountID)
	return share, nil
}

// ListActive returns the profile's invites that are neither used nor
// expired. Filtering happens here at query time, so records the store has
// not purged yet stay hidden.
func (m *Manager) ListActive(ctx context.Context, profileID string) ([]domain.Invite, error) {
	all, err := m.invites.ListInvitesByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}

	now := m.now()
	var active []domain.Invite
	for _, inv := range all {
		if inv.State(now) == domain.InviteActive {
			active = append(active, inv)
		}
	}
	return active, nil
}

// Delete removes a not-yet-redeemed invite. A redeemed invite is part of the
// sharing audit trail and cannot be deleted; an absent code succeeds
// (idempotent delete).
func (m *Manager) Delete(ctx context.Context, code string) error {
	inv, err := m.invites.GetInvite(ctx, code)
	if err != nil {
		return fmt.Errorf("loading invite: %w", err)
	}
	if inv == nil {
		return nil
	}
	if inv.Used {
		return domain.ErrInviteAlreadyUsed
	}
	return m.invites.DeleteInvite(ctx, code)
}

// generateCode draws random codes until one is unused. Collisions on
// 80 random bits are vanishingly rare; the loop exists so a collision is an
// extra round-trip, not a corrupted invite.
func (m *Manager) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		buf := make([]byte, codeBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating invite code: %w", err)
		}
		code := hex.EncodeToString(buf)

		existing, err := m.invites.GetInvite(ctx, code)
		if err != nil {
			return "", fmt.Errorf("collision-checking invite code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("invite code generation exhausted %d attempts", maxCodeAttempts)
}
