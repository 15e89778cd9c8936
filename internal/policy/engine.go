// Package policy evaluates session business rules with OPA.
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Actions checked by the rules.
const (
	ActionJoin      = "join"
	ActionSubscribe = "subscribe"
	ActionActivate  = "activate"
	ActionReveal    = "reveal"
	ActionFinalize  = "finalize"
	ActionVote      = "vote"
)

// Input describes the state an action is attempted against.
type Input struct {
	Action          string
	SessionID       int64
	SessionStatus   string
	HasCurrentStory bool
	// StorySessionID is the owning session of the targeted story, zero when
	// the action has no story.
	StorySessionID int64
}

func (in Input) toMap() map[string]any {
	return map[string]any{
		"action":            in.Action,
		"session_id":        in.SessionID,
		"session_status":    in.SessionStatus,
		"has_current_story": in.HasCurrentStory,
		"story_session_id":  in.StorySessionID,
	}
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.pokr.rules.violations"),
		rego.Module("rules.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewDefaultEngine creates an engine loaded with DefaultPolicy.
func NewDefaultEngine(ctx context.Context) (*Engine, error) {
	return NewEngine(ctx, DefaultPolicy)
}

// Violations returns the sorted names of the rules the input breaks.
func (e *Engine) Violations(ctx context.Context, in Input) ([]string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(in.toMap()))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	set, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	violations := make([]string, 0, len(set))
	for _, v := range set {
		if s, ok := v.(string); ok {
			violations = append(violations, s)
		}
	}
	sort.Strings(violations)
	return violations, nil
}

// DefaultPolicy is the default rule set.
const DefaultPolicy = `
package pokr.rules

story_actions := {"activate", "reveal", "finalize"}

violations contains "session_not_active" if {
	input.action in {"join", "subscribe"}
	input.session_status != "Active"
}

violations contains "story_not_in_session" if {
	story_actions[input.action]
	input.story_session_id != input.session_id
}

violations contains "no_current_story" if {
	input.action == "vote"
	input.has_current_story == false
}
`
