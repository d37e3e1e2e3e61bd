package storage

import (
	"context"
	"sync"

	"github.com/ignite/fundraiser-tracker/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Store used by tests and local
// development. Unlike the DynamoDB store its list queries never lag, but the
// conditional-write semantics of MarkInviteUsed are preserved so concurrency
// tests against it are meaningful.
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	profiles  map[string]domain.Profile
	campaigns map[string]domain.Campaign
	orders    map[string]domain.Order
	shares    map[string]domain.Share // keyed profileID + "/" + accountID
	invites   map[string]domain.Invite
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]domain.Account),
		profiles:  make(map[string]domain.Profile),
		campaigns: make(map[string]domain.Campaign),
		orders:    make(map[string]domain.Order),
		shares:    make(map[string]domain.Share),
		invites:   make(map[string]domain.Invite),
	}
}

func shareKey(profileID, accountID string) string {
	return profileID + "/" + accountID
}

// GetAccount retrieves an account by id, or nil if absent.
func (m *MemoryStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

// PutAccount stores an account.
func (m *MemoryStore) PutAccount(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = *account
	return nil
}

// GetProfile retrieves a profile by id, or nil if absent.
func (m *MemoryStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// PutProfile stores a profile.
func (m *MemoryStore) PutProfile(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = *profile
	return nil
}

// DeleteProfile removes a profile; absent ids are a no-op.
func (m *MemoryStore) DeleteProfile(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

// ListProfilesByOwner returns profiles owned by the account.
func (m *MemoryStore) ListProfilesByOwner(ctx context.Context, accountID string) ([]domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Profile
	for _, p := range m.profiles {
		if p.OwnerAccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetCampaign retrieves a campaign by id, or nil if absent.
func (m *MemoryStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.campaigns[id]; ok {
		return &c, nil
	}
	return nil, nil
}

// PutCampaign stores a campaign.
func (m *MemoryStore) PutCampaign(ctx context.Context, campaign *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[campaign.ID] = *campaign
	return nil
}

// DeleteCampaign removes a campaign; absent ids are a no-op.
func (m *MemoryStore) DeleteCampaign(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, id)
	return nil
}

// ListCampaignsByProfile returns campaigns under a profile.
func (m *MemoryStore) ListCampaignsByProfile(ctx context.Context, profileID string) ([]domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.ProfileID == profileID {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetOrder retrieves an order by id, or nil if absent.
func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		cp := o
		cp.LineItems = append([]domain.LineItem(nil), o.LineItems...)
		return &cp, nil
	}
	return nil, nil
}

// PutOrder stores an order.
func (m *MemoryStore) PutOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	cp.LineItems = append([]domain.LineItem(nil), order.LineItems...)
	m.orders[order.ID] = cp
	return nil
}

// DeleteOrder removes an order; absent ids are a no-op.
func (m *MemoryStore) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

// ListOrdersByCampaign returns orders under a campaign.
func (m *MemoryStore) ListOrdersByCampaign(ctx context.Context, campaignID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.CampaignID == campaignID {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListOrdersByProfile returns orders under a profile via the denormalized
// profile reference.
func (m *MemoryStore) ListOrdersByProfile(ctx context.Context, profileID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.ProfileID == profileID {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetShare retrieves the share for (profile, account), or nil if absent.
func (m *MemoryStore) GetShare(ctx context.Context, profileID, accountID string) (*domain.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.shares[shareKey(profileID, accountID)]; ok {
		cp := s
		cp.Permissions = append(domain.PermissionSet(nil), s.Permissions...)
		return &cp, nil
	}
	return nil, nil
}

// PutShare stores (or replaces) the share for (profile, account).
func (m *MemoryStore) PutShare(ctx context.Context, share *domain.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *share
	cp.Permissions = append(domain.PermissionSet(nil), share.Permissions...)
	m.shares[shareKey(share.ProfileID, share.TargetAccountID)] = cp
	return nil
}

// DeleteShare removes the share for (profile, account); absent is a no-op.
func (m *MemoryStore) DeleteShare(ctx context.Context, profileID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares, shareKey(profileID, accountID))
	return nil
}

// ListSharesByProfile returns all shares on a profile.
func (m *MemoryStore) ListSharesByProfile(ctx context.Context, profileID string) ([]domain.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Share
	for _, s := range m.shares {
		if s.ProfileID == profileID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListSharesByAccount returns all shares granted to an account.
func (m *MemoryStore) ListSharesByAccount(ctx context.Context, accountID string) ([]domain.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Share
	for _, s := range m.shares {
		if s.TargetAccountID == accountID {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetInvite retrieves an invite by code, or nil if absent.
func (m *MemoryStore) GetInvite(ctx context.Context, code string) (*domain.Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.invites[code]; ok {
		cp := i
		cp.Permissions = append(domain.PermissionSet(nil), i.Permissions...)
		return &cp, nil
	}
	return nil, nil
}

// PutInvite stores an invite.
func (m *MemoryStore) PutInvite(ctx context.Context, invite *domain.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *invite
	cp.Permissions = append(domain.PermissionSet(nil), invite.Permissions...)
	m.invites[invite.Code] = cp
	return nil
}

// DeleteInvite removes an invite; absent codes are a no-op.
func (m *MemoryStore) DeleteInvite(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.invites, code)
	return nil
}

// ListInvitesByProfile returns every invite on a profile, including used and
// expired ones.
func (m *MemoryStore) ListInvitesByProfile(ctx context.Context, profileID string) ([]domain.Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Invite
	for _, i := range m.invites {
		if i.ProfileID == profileID {
			out = append(out, i)
		}
	}
	return out, nil
}

// MarkInviteUsed is a compare-and-set under the store mutex, mirroring the
// DynamoDB conditional write: first caller wins, the rest observe
// already-used.
func (m *MemoryStore) MarkInviteUsed(ctx context.Context, code, redeemerAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || inv.Used {
		return domain.ErrInviteAlreadyUsed
	}
	inv.Used = true
	inv.RedeemedByAccount = redeemerAccountID
	m.invites[code] = inv
	return nil
}
