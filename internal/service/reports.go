package service

import (
	"context"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pipeline"
)

// ReportSink renders a profile's order report and returns a temporary
// download URL. Rendering and link issuance live outside this engine; the
// interface is the seam where that collaborator plugs in.
type ReportSink interface {
	WriteOrderReport(ctx context.Context, profile domain.Profile, orders []domain.Order) (url string, err error)
}

// ProfileReport gathers the profile's orders and hands them to the report
// sink. Requires READ; fail-open to an empty URL. Returns a validation
// error when no sink is configured.
func (s *Service) ProfileReport(ctx context.Context, accountID, profileID string) (string, error) {
	var url string
	ex := &pipeline.Exchange{AccountID: accountID, ProfileID: profileID}

	p := pipeline.New("profile.report",
		pipeline.Authorize(s.eval, domain.PermissionRead, false),
		pipeline.Step{Name: "execute", Run: func(ctx context.Context, ex *pipeline.Exchange) error {
			if s.reports == nil {
				return domain.NewValidationError("report", "no report backend configured")
			}
			profile, err := s.store.GetProfile(ctx, profileID)
			if err != nil {
				return err
			}
			if profile == nil {
				return pipeline.Halt()
			}
			orders, err := s.store.ListOrdersByProfile(ctx, profileID)
			if err != nil {
				return err
			}
			u, err := s.reports.WriteOrderReport(ctx, *profile, orders)
			if err != nil {
				return err
			}
			url = u
			return nil
		}},
	)
	if err := p.Run(ctx, ex); err != nil {
		return "", err
	}
	return url, nil
}
