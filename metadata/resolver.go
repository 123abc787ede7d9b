package metadata

import "context"

// DecisionKind identifies the action chosen when a search is ambiguous.
type DecisionKind int

const (
	// DecisionSkip abandons the current provider for this path.
	DecisionSkip DecisionKind = iota
	// DecisionNewName restarts the search with a different name.
	DecisionNewName
	// DecisionExclude marks the path excluded so it is never offered again.
	DecisionExclude
	// DecisionProceed continues without this provider's data.
	// Only valid when the provider is not required.
	DecisionProceed
	// DecisionChoose picks one of the presented results.
	DecisionChoose
)

// Decision is the outcome of a disambiguation request.
type Decision struct {
	Kind   DecisionKind
	Name   string        // for DecisionNewName
	Result *SearchResult // for DecisionChoose
}

// Skip returns a skip decision.
func Skip() Decision { return Decision{Kind: DecisionSkip} }

// NewName returns a decision to re-search with the given name.
func NewName(name string) Decision { return Decision{Kind: DecisionNewName, Name: name} }

// Exclude returns a decision to exclude the path.
func Exclude() Decision { return Decision{Kind: DecisionExclude} }

// Proceed returns a decision to continue without the current provider.
func Proceed() Decision { return Decision{Kind: DecisionProceed} }

// Choose returns a decision picking the given result.
func Choose(r SearchResult) Decision { return Decision{Kind: DecisionChoose, Result: &r} }

// Request describes the disambiguation being asked for.
type Request struct {
	Path              string
	Name              string
	Platform          string
	Provider          string
	CanProceedWithout bool
}

// Resolver supplies decisions when a provider search returns zero or
// multiple results. Calls block the resolution worker until a decision
// is made; scanning never proceeds past an unresolved disambiguation.
type Resolver interface {
	OnNoResults(ctx context.Context, req Request) (Decision, error)
	OnMultipleResults(ctx context.Context, req Request, results []SearchResult) (Decision, error)
}

// AutoSkipResolver skips every ambiguous path without asking.
type AutoSkipResolver struct{}

func (AutoSkipResolver) OnNoResults(context.Context, Request) (Decision, error) {
	return Skip(), nil
}

func (AutoSkipResolver) OnMultipleResults(context.Context, Request, []SearchResult) (Decision, error) {
	return Skip(), nil
}
