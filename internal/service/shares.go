package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pipeline"
)

// ShareInput carries the permission set for a grant.
type ShareInput struct {
	Permissions domain.PermissionSet `json:"permissions"`
}

// ListShares returns the profile's share rows. Requires WRITE (grant
// visibility is itself sensitive); fail-open to an empty list.
func (s *Service) ListShares(ctx context.Context, accountID, profileID string) ([]domain.Share, error) {
	var result []domain.Share
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("share.list",
		pipeline.Authorize(s.eval, domain.PermissionWrite, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			shares, err := s.store.ListSharesByProfile(ctx, profileID)
			if err != nil {
				return err
			}
			result = shares
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Share{}
	}
	return result, nil
}

// PutShare grants (or replaces) the target account's permissions on the
// profile. The caller must be the owner or hold WRITE. Granting to the
// owner is rejected: the owner's access is implicit and never stored.
func (s *Service) PutShare(ctx context.Context, accountID, profileID, targetAccountID string, input ShareInput) (*domain.Share, error) {
	var created *domain.Share
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("share.put",
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if !input.Permissions.Valid() {
				return domain.NewValidationError("permissions", "must be a non-empty subset of {READ, WRITE}")
			}
			if targetAccountID == "" {
				return domain.NewValidationError("account_id", "is required")
			}
			profile, err := s.store.GetProfile(ctx, profileID)
			if err != nil {
				return err
			}
			if profile == nil {
				return domain.ErrNotFound
			}
			if profile.OwnerAccountID == targetAccountID {
				return domain.NewValidationError("account_id", "profile owner cannot be granted a share")
			}
			share := &domain.Share{
				ProfileID:          profileID,
				TargetAccountID:    targetAccountID,
				Permissions:        input.Permissions,
				CreatedByAccountID: accountID,
				CreatedAt:          time.Now().UTC(),
			}
			if err := s.store.PutShare(ctx, share); err != nil {
				return fmt.Errorf("persisting share: %w", err)
			}
			created = share
			return nil
		}},
		pipeline.Step{Name: "invalidate-cache", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if s.cache != nil {
				s.cache.Invalidate(ctx, profileID, targetAccountID)
			}
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return created, nil
}

// RevokeShare removes the target account's grant. Owner only; revoking an
// absent share succeeds. The cached verdict is dropped before returning, so
// an immediately following check denies.
func (s *Service) RevokeShare(ctx context.Context, accountID, profileID, targetAccountID string) error {
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("share.revoke",
		pipeline.AuthorizeOwnerDelete(s.eval),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.store.DeleteShare(ctx, profileID, targetAccountID)
		}},
		pipeline.Step{Name: "invalidate-cache", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if s.cache != nil {
				s.cache.Invalidate(ctx, profileID, targetAccountID)
			}
			return nil
		}},
	)
	return p.Run(ctx, ex)
}
