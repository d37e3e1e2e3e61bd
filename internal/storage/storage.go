// Package storage provides the persistence layer for the fundraiser engine:
// repository interfaces over Profile, Campaign, Order, Share, Invite, and
// Account records, a DynamoDB-backed implementation, and an in-memory
// implementation for tests.
//
// Conventions shared by all implementations:
//   - Get* returns (nil, nil) when the record does not exist; callers decide
//     whether absence is an error.
//   - Delete* is unconditional and succeeds when the record is already gone.
//   - List* queries run against secondary indexes that may lag the primary
//     write by a small bounded interval; read-after-write callers wrap them
//     in the consistency adapter.
package storage

import (
	"context"

	"github.com/ignite/fundraiser-tracker/internal/domain"
)

// AccountRepository stores caller accounts, created on first authentication.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	PutAccount(ctx context.Context, account *domain.Account) error
}

// ProfileRepository stores seller profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	PutProfile(ctx context.Context, profile *domain.Profile) error
	DeleteProfile(ctx context.Context, id string) error
	ListProfilesByOwner(ctx context.Context, accountID string) ([]domain.Profile, error)
}

// CampaignRepository stores campaigns under their owning profile.
type CampaignRepository interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	PutCampaign(ctx context.Context, campaign *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
	ListCampaignsByProfile(ctx context.Context, profileID string) ([]domain.Campaign, error)
}

// OrderRepository stores customer orders. Orders carry a denormalized
// profile id so profile-scoped listings don't walk through campaigns.
type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	PutOrder(ctx context.Context, order *domain.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrdersByCampaign(ctx context.Context, campaignID string) ([]domain.Order, error)
	ListOrdersByProfile(ctx context.Context, profileID string) ([]domain.Order, error)
}

// ShareRepository stores permission grants keyed by (profile, account).
type ShareRepository interface {
	GetShare(ctx context.Context, profileID, accountID string) (*domain.Share, error)
	PutShare(ctx context.Context, share *domain.Share) error
	DeleteShare(ctx context.Context, profileID, accountID string) error
	ListSharesByProfile(ctx context.Context, profileID string) ([]domain.Share, error)
	ListSharesByAccount(ctx context.Context, accountID string) ([]domain.Share, error)
}

// InviteRepository stores invite codes keyed by the code itself.
type InviteRepository interface {
	GetInvite(ctx context.Context, code string) (*domain.Invite, error)
	PutInvite(ctx context.Context, invite *domain.Invite) error
	DeleteInvite(ctx context.Context, code string) error
	ListInvitesByProfile(ctx context.Context, profileID string) ([]domain.Invite, error)

	// MarkInviteUsed flips the invite's used flag with a conditional write
	// that only succeeds while the flag is still false. Exactly one of any
	// set of concurrent callers wins; the rest get
	// domain.ErrInviteAlreadyUsed.
	MarkInviteUsed(ctx context.Context, code, redeemerAccountID string) error
}

// Store aggregates every repository. Both the DynamoDB and the in-memory
// implementations satisfy it.
type Store interface {
	AccountRepository
	ProfileRepository
	CampaignRepository
	OrderRepository
	ShareRepository
	InviteRepository
}
