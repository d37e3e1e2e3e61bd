// Package service implements the engine's operations. Every operation runs
// as a pipeline (authenticate happens upstream in the API middleware; the
// account id arrives resolved): load target → authorize → execute →
// cascade/enrich → shape response.
//
// Policy carried by every operation here:
//   - reads fail open: unauthorized or missing targets yield nil / empty
//     results, never errors, so existence cannot be probed
//   - writes fail closed: unauthorized or invalid requests error
//   - deletes are idempotent: an absent target reports success
package service

import (
	"time"

	"github.com/ignite/fundraiser-tracker/internal/authz"
	"github.com/ignite/fundraiser-tracker/internal/cascade"
	"github.com/ignite/fundraiser-tracker/internal/consistency"
	"github.com/ignite/fundraiser-tracker/internal/invite"
	"github.com/ignite/fundraiser-tracker/internal/pkg/distlock"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// Service holds the collaborators every operation pipeline draws on.
type Service struct {
	store   storage.Store
	eval    *authz.Evaluator
	cache   *authz.Cache // nil when caching is disabled
	cascade *cascade.Coordinator
	invites *invite.Manager
	await   consistency.Options
	reports ReportSink // nil when no report backend is configured
}

// Config wires a Service. Store is required; nil optional fields disable
// their feature.
type Config struct {
	Store      storage.Store
	Cache      *authz.Cache
	Locks      *distlock.Manager
	InviteTTL  time.Duration
	Await      consistency.Options
	ReportSink ReportSink
}

// New builds the Service and its internal collaborators.
func New(cfg Config) *Service {
	eval := authz.NewEvaluator(cfg.Store, cfg.Store, cfg.Cache)
	return &Service{
		store:   cfg.Store,
		eval:    eval,
		cache:   cfg.Cache,
		cascade: cascade.NewCoordinator(cfg.Store, cfg.Locks),
		invites: invite.NewManager(cfg.Store, cfg.Store, cfg.InviteTTL),
		await:   cfg.Await,
		reports: cfg.ReportSink,
	}
}

// Evaluator exposes the permission evaluator for callers (tests, admin
// tooling) that need raw decisions.
func (s *Service) Evaluator() *authz.Evaluator { return s.eval }
