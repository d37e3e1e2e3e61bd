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

// CampaignInput carries the caller-editable campaign fields. CatalogID is
// accepted as-is; catalog existence is the catalog service's concern, not
// ours.
type CampaignInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CatalogID string    `json:"catalog_id"`
}

func (in CampaignInput) validate() error {
	if in.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if !in.EndDate.IsZero() && !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return domain.NewValidationError("end_date", "must not precede start_date")
	}
	return nil
}

// CreateCampaign creates a campaign under the profile. Requires WRITE.
func (s *Service) CreateCampaign(ctx context.Context, accountID, profileID string, input CampaignInput) (*domain.Campaign, error) {
	var created *domain.Campaign
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("campaign.create",
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if err := input.validate(); err != nil {
				return err
			}
			now := time.Now().UTC()
			campaign := &domain.Campaign{
				ID:        uuid.New().String(),
				ProfileID: profileID,
				Name:      input.Name,
				StartDate: input.StartDate,
				EndDate:   input.EndDate,
				CatalogID: input.CatalogID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.store.PutCampaign(ctx, campaign); err != nil {
				return fmt.Errorf("persisting campaign: %w", err)
			}
			created = campaign
			return nil
		}},
		pipeline.Step{Name: "await-index", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.awaitCampaignIndexed(ctx, profileID, created.ID)
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return created, nil
}

// GetCampaign returns the campaign, or nil when it does not exist or the
// caller lacks READ on its profile.
func (s *Service) GetCampaign(ctx context.Context, accountID, campaignID string) (*domain.Campaign, error) {
	var campaign, result *domain.Campaign
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("campaign.get",
		s.loadCampaignTarget(campaignID, &campaign, false),
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "shape", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			// Only reached when authorized; a denial halted upstream and
			// leaves the nil result in place.
			result = campaign
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateCampaign rewrites the campaign's editable fields. Requires WRITE.
func (s *Service) UpdateCampaign(ctx context.Context, accountID, campaignID string, input CampaignInput) (*domain.Campaign, error) {
	var campaign *domain.Campaign
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("campaign.update",
		s.loadCampaignTarget(campaignID, &campaign, true),
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if err := input.validate(); err != nil {
				return err
			}
			campaign.Name = input.Name
			campaign.StartDate = input.StartDate
			campaign.EndDate = input.EndDate
			campaign.CatalogID = input.CatalogID
			campaign.UpdatedAt = time.Now().UTC()
			if err := s.store.PutCampaign(ctx, campaign); err != nil {
				return fmt.Errorf("persisting campaign: %w", err)
			}
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return campaign, nil
}

// DeleteCampaign removes the campaign and its orders. Requires WRITE;
// deleting an absent campaign succeeds.
func (s *Service) DeleteCampaign(ctx context.Context, accountID, campaignID string) error {
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("campaign.delete",
		pipeline.Step{Name: "load-target", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			c, err := s.store.GetCampaign(ctx, campaignID)
			if err != nil {
				return err
			}
			if c == nil {
				return pipeline.Halt() // already gone: idempotent success
			}
			ex.ProfileID = c.ProfileID
			return nil
		}},
		pipeline.AuthorizeDelete(s.eval, domain.PermissionWrite),
		pipeline.Step{Name: "cascade", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.cascade.DeleteCampaign(ctx, campaignID)
		}},
	)
	return p.Run(ctx, ex)
}

// ListCampaigns returns the profile's campaigns, or an empty list when the
// profile is missing or the caller lacks READ.
func (s *Service) ListCampaigns(ctx context.Context, accountID, profileID string) ([]domain.Campaign, error) {
	var result []domain.Campaign
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("campaign.list",
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			campaigns, err := s.store.ListCampaignsByProfile(ctx, profileID)
			if err != nil {
				return err
			}
			result = campaigns
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Campaign{}
	}
	return result, nil
}

// loadCampaignTarget resolves the campaign and, through it, the profile the
// authorization check runs against. For queries a missing campaign halts
// (empty result); for mutations it is ErrNotFound.
func (s *Service) loadCampaignTarget(campaignID string, out **domain.Campaign, mutation bool) pipeline.Step {
	return pipeline.Step{Name: "load-target", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
		campaign, err := s.store.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			if mutation {
				return domain.ErrNotFound
			}
			return pipeline.Halt()
		}
		*out = campaign
		ex.ProfileID = campaign.ProfileID
		return nil
	}}
}

// awaitCampaignIndexed waits for the profile index to reflect a just-created
// campaign.
func (s *Service) awaitCampaignIndexed(ctx context.Context, profileID, campaignID string) error {
	_, err := consistency.Await(ctx, s.await,
		func(ctx context.Context) ([]domain.Campaign, error) {
			return s.store.ListCampaignsByProfile(ctx, profileID)
		},
		func(campaigns []domain.Campaign) bool {
			for _, c := range campaigns {
				if c.ID == campaignID {
					return true
				}
			}
			return false
		},
	)
	if errors.Is(err, consistency.ErrExhausted) {
		return nil
	}
	return err
}
