package service

import (
	"context"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pipeline"
)

// InviteInput carries the permission set an invite grants on redemption.
type InviteInput struct {
	Permissions domain.PermissionSet `json:"permissions"`
}

// CreateInvite issues an invite on the profile. The caller must be the
// owner or hold WRITE.
func (s *Service) CreateInvite(ctx context.Context, accountID, profileID string, input InviteInput) (*domain.Invite, error) {
	var created *domain.Invite
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("invite.create",
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			inv, err := s.invites.Create(ctx, profileID, input.Permissions, accountID)
			if err != nil {
				return err
			}
			created = inv
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return created, nil
}

// ListInvites returns the profile's active invites. Owner only; fail-open
// to an empty list. Used and expired invites are filtered at query time
// even when the store still holds them.
func (s *Service) ListInvites(ctx context.Context, accountID, profileID string) ([]domain.Invite, error) {
	var result []domain.Invite
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("invite.list",
		pipeline.AuthorizeOwner(s.eval, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			invites, err := s.invites.ListActive(ctx, profileID)
			if err != nil {
				return err
			}
			result = invites
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Invite{}
	}
	return result, nil
}

// DeleteInvite removes a not-yet-redeemed invite. Owner only; an absent
// code succeeds.
func (s *Service) DeleteInvite(ctx context.Context, accountID, code string) error {
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("invite.delete",
		pipeline.Step{Name: "load-target", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			inv, err := s.store.GetInvite(ctx, code)
			if err != nil {
				return err
			}
			if inv == nil {
				return pipeline.Halt()
			}
			ex.ProfileID = inv.ProfileID
			return nil
		}},
		pipeline.AuthorizeOwnerDelete(s.eval),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.invites.Delete(ctx, code)
		}},
	)
	return p.Run(ctx, ex)
}

// RedeemInvite consumes the code for the calling account and returns the
// share it granted. Any authenticated account may redeem; failures surface
// as distinct not-found / already-used / expired errors.
func (s *Service) RedeemInvite(ctx context.Context, accountID, code string) (*domain.Share, error) {
	var share *domain.Share
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("invite.redeem",
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			granted, err := s.invites.Redeem(ctx, code, accountID)
			if err != nil {
				return err
			}
			share = granted
			ex.ProfileID = granted.ProfileID
			return nil
		}},
		pipeline.Step{Name: "invalidate-cache", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			// A cached "no access" verdict for this pair predates the
			// grant; drop it so the new permissions apply immediately.
			if s.cache != nil {
				s.cache.Invalidate(ctx, ex.ProfileID, accountID)
			}
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return share, nil
}
