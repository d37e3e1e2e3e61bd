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

// OrderInput carries the caller-editable order fields. The total is never
// accepted from the caller; it is computed from the line items.
type OrderInput struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	LineItems     []domain.LineItem `json:"line_items"`
}

func (in OrderInput) validate() error {
	if in.CustomerName == "" {
		return domain.NewValidationError("customer_name", "is required")
	}
	if len(in.LineItems) == 0 {
		return domain.NewValidationError("line_items", "at least one is required")
	}
	for _, li := range in.LineItems {
		if li.ProductID == "" {
			return domain.NewValidationError("line_items.product_id", "is required")
		}
		if li.Quantity <= 0 {
			return domain.NewValidationError("line_items.quantity", "must be positive")
		}
		if li.UnitPriceCents < 0 {
			return domain.NewValidationError("line_items.unit_price_cents", "must not be negative")
		}
	}
	return nil
}

// CreateOrder records a customer order against the campaign. Requires WRITE
// on the campaign's profile. If the campaign vanished mid-flight the create
// fails with not-found rather than writing an orphan.
func (s *Service) CreateOrder(ctx context.Context, accountID, campaignID string, input OrderInput) (*domain.Order, error) {
	var campaign *domain.Campaign
	var created *domain.Order
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("order.create",
		s.loadCampaignTarget(campaignID, &campaign, true),
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if err := input.validate(); err != nil {
				return err
			}
			now := time.Now().UTC()
			order := &domain.Order{
				ID:            uuid.New().String(),
				CampaignID:    campaignID,
				ProfileID:     campaign.ProfileID,
				CustomerName:  input.CustomerName,
				CustomerEmail: input.CustomerEmail,
				CustomerPhone: input.CustomerPhone,
				LineItems:     input.LineItems,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			order.TotalCents = order.ComputeTotal()
			if err := s.store.PutOrder(ctx, order); err != nil {
				return fmt.Errorf("persisting order: %w", err)
			}
			created = order
			return nil
		}},
		pipeline.Step{Name: "await-index", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.awaitOrderIndexed(ctx, campaignID, created.ID)
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrder returns the order, or nil when it does not exist or the caller
// lacks READ on its profile.
func (s *Service) GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error) {
	var order, result *domain.Order
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("order.get",
		s.loadOrderTarget(orderID, &order, false),
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "shape", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			result = order
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateOrder rewrites the order's customer fields and line items,
// recomputing the total. Requires WRITE.
func (s *Service) UpdateOrder(ctx context.Context, accountID, orderID string, input OrderInput) (*domain.Order, error) {
	var order *domain.Order
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("order.update",
		s.loadOrderTarget(orderID, &order, true),
		pipeline.Authorize(s.eval, domain.PermissionWrite, true),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if err := input.validate(); err != nil {
				return err
			}
			order.CustomerName = input.CustomerName
			order.CustomerEmail = input.CustomerEmail
			order.CustomerPhone = input.CustomerPhone
			order.LineItems = input.LineItems
			order.TotalCents = order.ComputeTotal()
			order.UpdatedAt = time.Now().UTC()
			if err := s.store.PutOrder(ctx, order); err != nil {
				return fmt.Errorf("persisting order: %w", err)
			}
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes the order. Requires WRITE; deleting an absent order
// succeeds.
func (s *Service) DeleteOrder(ctx context.Context, accountID, orderID string) error {
	var order *domain.Order
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("order.delete",
		pipeline.Step{Name: "load-target", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			o, err := s.store.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if o == nil {
				return pipeline.Halt()
			}
			order = o
			ex.ProfileID = o.ProfileID
			return nil
		}},
		pipeline.AuthorizeDelete(s.eval, domain.PermissionWrite),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			return s.store.DeleteOrder(ctx, order.ID)
		}},
	)
	return p.Run(ctx, ex)
}

// ListOrdersByCampaign returns the campaign's orders, or an empty list when
// the campaign is missing or the caller lacks READ.
func (s *Service) ListOrdersByCampaign(ctx context.Context, accountID, campaignID string) ([]domain.Order, error) {
	var campaign *domain.Campaign
	var result []domain.Order
	ex := &pipeline.Exchange{AccountID: accountID}

	p := pipeline.New("order.list-by-campaign",
		s.loadCampaignTarget(campaignID, &campaign, false),
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			orders, err := s.store.ListOrdersByCampaign(ctx, campaignID)
			if err != nil {
				return err
			}
			result = orders
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Order{}
	}
	return result, nil
}

// ListOrdersByProfile returns every order under the profile via the
// denormalized profile reference. Same fail-open shape as the campaign
// listing.
func (s *Service) ListOrdersByProfile(ctx context.Context, accountID, profileID string) ([]domain.Order, error) {
	var result []domain.Order
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("order.list-by-profile",
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			orders, err := s.store.ListOrdersByProfile(ctx, profileID)
			if err != nil {
				return err
			}
			result = orders
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Order{}
	}
	return result, nil
}

// loadOrderTarget resolves the order and the profile to authorize against,
// using the order's denormalized profile reference.
func (s *Service) loadOrderTarget(orderID string, out **domain.Order, mutation bool) pipeline.Step {
	return pipeline.Step{Name: "load-target", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			if mutation {
				return domain.ErrNotFound
			}
			return pipeline.Halt()
		}
		*out = order
		ex.ProfileID = order.ProfileID
		return nil
	}}
}

// awaitOrderIndexed waits for the campaign index to reflect a just-created
// order.
func (s *Service) awaitOrderIndexed(ctx context.Context, campaignID, orderID string) error {
	_, err := consistency.Await(ctx, s.await,
		func(ctx context.Context) ([]domain.Order, error) {
			return s.store.ListOrdersByCampaign(ctx, campaignID)
		},
		func(orders []domain.Order) bool {
			for _, o := range orders {
				if o.ID == orderID {
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
