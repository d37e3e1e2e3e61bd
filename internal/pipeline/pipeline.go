// Package pipeline runs every engine operation as an ordered chain of named
// steps over a request-scoped Exchange: authenticate → load target →
// authorize → execute → cascade/enrich → shape response.
//
// The chain is data, not middleware: each operation lists its steps
// explicitly, and a step either extends the Exchange, halts the chain with a
// benign empty result (fail-open reads), or aborts it with an error
// (fail-closed writes).
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/fundraiser-tracker/internal/authz"
	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
)

// errHalt stops the remaining steps without surfacing an error. Fail-open
// reads use it to short-circuit to their empty result.
var errHalt = errors.New("pipeline halted")

// Exchange is the request-scoped state a pipeline run threads through its
// steps. Nothing here is shared across requests.
type Exchange struct {
	// AccountID is the authenticated caller, set before the run.
	AccountID string
	// ProfileID is the authorization target, set directly for
	// profile-scoped operations or resolved by a load-target step for
	// nested ones (order → campaign → profile).
	ProfileID string
	// Decision is the evaluator's verdict, populated by Authorize.
	Decision authz.Decision
}

// Step is one named stage of an operation.
type Step struct {
	Name string
	Run  func(ctx context.Context, ex *Exchange) error
}

// Pipeline is an ordered list of steps under an operation name.
type Pipeline struct {
	name  string
	steps []Step
}

// New builds a pipeline.
func New(name string, steps ...Step) *Pipeline {
	return &Pipeline{name: name, steps: steps}
}

// Run executes the steps in order. A step error aborts the run and is
// wrapped with the operation and step name; a halt ends the run cleanly.
func (p *Pipeline) Run(ctx context.Context, ex *Exchange) error {
	for _, step := range p.steps {
		if err := step.Run(ctx, ex); err != nil {
			if errors.Is(err, errHalt) {
				return nil
			}
			logger.Debug("pipeline step failed",
				"operation", p.name, "step", step.Name, "account_id", ex.AccountID)
			return fmt.Errorf("%s/%s: %w", p.name, step.Name, err)
		}
	}
	return nil
}

// Halt returns the sentinel that cleanly stops a run. The step that calls it
// is responsible for having already produced the operation's empty result.
func Halt() error { return errHalt }

// Authorize returns the standard authorization step: evaluate the caller
// against the Exchange's target profile at the required level.
//
// Mutations fail closed: a missing profile is ErrNotFound and a denial is
// ErrUnauthorized. Queries fail open: both outcomes halt the chain so the
// caller's empty result (nil or empty list) is indistinguishable from
// legitimate absence.
func Authorize(eval *authz.Evaluator, required domain.Permission, mutation bool) Step {
	return Step{
		Name: "authorize",
		Run: func(ctx context.Context, ex *Exchange) error {
			decision, err := eval.Evaluate(ctx, ex.AccountID, ex.ProfileID, required)
			if err != nil {
				return err
			}
			ex.Decision = decision
			return applyDecision(decision, mutation)
		},
	}
}

// AuthorizeOwner is Authorize restricted to the profile owner, used by
// profile deletion, share revocation, and invite administration.
func AuthorizeOwner(eval *authz.Evaluator, mutation bool) Step {
	return Step{
		Name: "authorize-owner",
		Run: func(ctx context.Context, ex *Exchange) error {
			decision, err := eval.EvaluateOwner(ctx, ex.AccountID, ex.ProfileID)
			if err != nil {
				return err
			}
			ex.Decision = decision
			return applyDecision(decision, mutation)
		},
	}
}

// AuthorizeDelete is the mutation authorize step for deletes, where a
// missing target means the work is already done: Missing halts the chain so
// the delete reports idempotent success, while a live denial still errors.
func AuthorizeDelete(eval *authz.Evaluator, required domain.Permission) Step {
	return Step{
		Name: "authorize",
		Run: func(ctx context.Context, ex *Exchange) error {
			decision, err := eval.Evaluate(ctx, ex.AccountID, ex.ProfileID, required)
			if err != nil {
				return err
			}
			ex.Decision = decision
			return applyDeleteDecision(decision)
		},
	}
}

// AuthorizeOwnerDelete is AuthorizeDelete restricted to the profile owner.
func AuthorizeOwnerDelete(eval *authz.Evaluator) Step {
	return Step{
		Name: "authorize-owner",
		Run: func(ctx context.Context, ex *Exchange) error {
			decision, err := eval.EvaluateOwner(ctx, ex.AccountID, ex.ProfileID)
			if err != nil {
				return err
			}
			ex.Decision = decision
			return applyDeleteDecision(decision)
		},
	}
}

func applyDeleteDecision(decision authz.Decision) error {
	switch decision {
	case authz.Allow:
		return nil
	case authz.Missing:
		return errHalt
	default:
		return domain.ErrUnauthorized
	}
}

func applyDecision(decision authz.Decision, mutation bool) error {
	if decision == authz.Allow {
		return nil
	}
	if !mutation {
		return errHalt
	}
	if decision == authz.Missing {
		return domain.ErrNotFound
	}
	return domain.ErrUnauthorized
}
