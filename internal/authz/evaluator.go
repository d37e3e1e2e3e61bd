// Package authz decides whether an account may act on a profile.
//
// There is exactly one grant path: profile ownership (implicit READ+WRITE,
// never stored as a share row) or a stored Share. No transitive sharing, no
// group permissions, no public profiles.
package authz

import (
	"context"
	"fmt"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// Decision is the outcome of a permission check.
type Decision int

const (
	// Deny means the profile exists but the account lacks the level.
	Deny Decision = iota
	// Allow means the account holds the required level.
	Allow
	// Missing means the profile does not resolve. Every caller treats it
	// as a denial, but queries shape it as null/empty while mutations
	// report not-found.
	Missing
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Missing:
		return "missing"
	default:
		return "deny"
	}
}

// Evaluator is a pure decision function over current repository state.
type Evaluator struct {
	profiles storage.ProfileRepository
	shares   storage.ShareRepository
	cache    *Cache // nil disables caching
}

// NewEvaluator builds an evaluator over the given repositories. cache may be
// nil.
func NewEvaluator(profiles storage.ProfileRepository, shares storage.ShareRepository, cache *Cache) *Evaluator {
	return &Evaluator{profiles: profiles, shares: shares, cache: cache}
}

// Evaluate decides whether accountID holds required on profileID.
//
// Order matters: profile load (absent → Missing), owner short-circuit, then
// share lookup. READ is satisfied by any non-empty permission set; WRITE
// requires WRITE to be literally present.
func (e *Evaluator) Evaluate(ctx context.Context, accountID, profileID string, required domain.Permission) (Decision, error) {
	if e.cache != nil {
		if grant, ok := e.cache.Get(ctx, profileID, accountID); ok {
			return grant.decide(required), nil
		}
	}

	grant, err := e.resolve(ctx, accountID, profileID)
	if err != nil {
		return Deny, err
	}

	if e.cache != nil {
		e.cache.Set(ctx, profileID, accountID, grant)
	}
	return grant.decide(required), nil
}

// EvaluateOwner decides whether accountID owns profileID. Owner-only
// operations (profile deletion, share revocation, invite administration) use
// this instead of Evaluate; no share can satisfy it.
func (e *Evaluator) EvaluateOwner(ctx context.Context, accountID, profileID string) (Decision, error) {
	profile, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return Deny, fmt.Errorf("loading profile for authz: %w", err)
	}
	if profile == nil {
		return Missing, nil
	}
	if profile.OwnerAccountID == accountID {
		return Allow, nil
	}
	return Deny, nil
}

func (e *Evaluator) resolve(ctx context.Context, accountID, profileID string) (grant, error) {
	profile, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return grant{}, fmt.Errorf("loading profile for authz: %w", err)
	}
	if profile == nil {
		return grant{missing: true}, nil
	}
	if profile.OwnerAccountID == accountID {
		return grant{owner: true}, nil
	}

	share, err := e.shares.GetShare(ctx, profileID, accountID)
	if err != nil {
		return grant{}, fmt.Errorf("loading share for authz: %w", err)
	}
	if share == nil {
		return grant{}, nil
	}
	return grant{permissions: share.Permissions}, nil
}

// grant is the cached intermediate: what the account holds on the profile,
// independent of which level a particular request needs.
type grant struct {
	missing     bool
	owner       bool
	permissions domain.PermissionSet
}

func (g grant) decide(required domain.Permission) Decision {
	if g.missing {
		return Missing
	}
	if g.owner {
		return Allow
	}
	if g.permissions.Grants(required) {
		return Allow
	}
	return Deny
}
