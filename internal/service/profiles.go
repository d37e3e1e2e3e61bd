package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/fundraiser-tracker/internal/consistency"
	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pipeline"
)

// ProfileInput carries the caller-editable profile fields.
type ProfileInput struct {
	Name string `json:"name"`
}

// CreateProfile creates a profile owned by the caller. Any authenticated
// account may create profiles; there is nothing to authorize against yet.
func (s *Service) CreateProfile(ctx context.Context, accountID string, input ProfileInput) (*domain.Profile, error) {
	var created *domain.Profile
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("profile.create",
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if input.Name == "" {
				return domain.NewValidationError("name", "is required")
			}
			now := time.Now().UTC()
			profile := &domain.Profile{
				ID:             uuid.New().String(),
				OwnerAccountID: accountID,
				Name:           input.Name,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.store.PutProfile(ctx, profile); err != nil {
				return fmt.Errorf("persisting profile: %w", err)
			}
			created = profile
			ex.ProfileID = profile.ID
			return nil
		}},
		pipeline.Step{Name: "await-index", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.awaitProfileIndexed(ctx, accountID, ex.ProfileID)
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return created, nil
}

// GetProfile returns the profile, or nil when it does not exist or the
// caller lacks READ. The two cases are indistinguishable to the caller.
func (s *Service) GetProfile(ctx context.Context, accountID, profileID string) (*domain.Profile, error) {
	var result *domain.Profile
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("profile.get",
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			profile, err := s.store.GetProfile(ctx, profileID)
			if err != nil {
				return err
			}
			result = profile
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return result, nil
}

// ListProfiles returns the caller's own profiles plus the profiles shared
// with them.
func (s *Service) ListProfiles(ctx context.Context, accountID string) ([]domain.Profile, error) {
	owned, err := s.store.ListProfilesByOwner(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing owned profiles: %w", err)
	}

	shares, err := s.store.ListSharesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing shared profiles: %w", err)
	}

	profiles := append([]domain.Profile{}, owned...)
	seen := make(map[string]bool, len(owned))
	for _, p := range owned {
		seen[p.ID] = true
	}
	for _, share := range shares {
		if seen[share.ProfileID] {
			continue
		}
		profile, err := s.store.GetProfile(ctx, share.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("loading shared profile: %w", err)
		}
		if profile == nil {
			// Share row outliving its profile is a cascade race; hide it.
			continue
		}
		profiles = append(profiles, *profile)
		seen[profile.ID] = true
	}
	return profiles, nil
}

// UpdateProfile renames the profile. Requires WRITE.
func (s *Service) UpdateProfile(ctx context.Context, accountID, profileID string, input ProfileInput) (*domain.Profile, error) {
	var updated *domain.Profile
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("profile.update",
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if input.Name == "" {
				return domain.NewValidationError("name", "is required")
			}
			profile, err := s.store.GetProfile(ctx, profileID)
			if err != nil {
				return err
			}
			if profile == nil {
				return domain.ErrNotFound
			}
			profile.Name = input.Name
			profile.UpdatedAt = time.Now().UTC()
			if err := s.store.PutProfile(ctx, profile); err != nil {
				return fmt.Errorf("persisting profile: %w", err)
			}
			updated = profile
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProfile removes the profile and everything beneath it: orders,
// campaigns, shares, invites, then the profile record. Owner only; deleting
// an absent profile succeeds.
func (s *Service) DeleteProfile(ctx context.Context, accountID, profileID string) error {
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	var sharedWith []string
	p := pipeline.New("profile.delete",
		pipeline.AuthorizeOwnerDelete(s.eval),
		pipeline.Step{Name: "snapshot-grants", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			shares, err := s.store.ListSharesByProfile(ctx, profileID)
			if err != nil {
				return err
			}
			for _, share := range shares {
				sharedWith = append(sharedWith, share.TargetAccountID)
			}
			return nil
		}},
		pipeline.Step{Name: "cascade", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.cascade.DeleteProfile(ctx, profileID)
		}},
		pipeline.Step{Name: "invalidate-cache", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if s.cache == nil {
				return nil
			}
			s.cache.Invalidate(ctx, profileID, accountID)
			for _, target := range sharedWith {
				s.cache.Invalidate(ctx, profileID, target)
			}
			return nil
		}},
	)
	return p.Run(ctx, ex)
}

// awaitProfileIndexed blocks until the owner index reflects a just-created
// profile, bounding the write-to-list propagation gap callers would
// otherwise observe.
func (s *Service) awaitProfileIndexed(ctx context.Context, accountID, profileID string) error {
	_, err := consistency.Await(ctx, s.await,
		func(ctx context.Context) ([]domain.Profile, error) {
			return s.store.ListProfilesByOwner(ctx, accountID)
		},
		func(profiles []domain.Profile) bool {
			for _, p := range profiles {
				if p.ID == profileID {
					return true
				}
			}
			return false
		},
	)
	if errors.Is(err, consistency.ErrExhausted) {
		// The write landed; the index is just slow. Don't fail the create.
		return nil
	}
	return err
}
