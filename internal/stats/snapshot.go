package stats

import "github.com/huangang/evalstats/internal/models"

// ReadSet names the documents one aggregate transaction reads. EventID and
// Handler, when both set, make the transaction a no-op if that handler has
// already committed the event.
type ReadSet struct {
	Overview     bool
	Responses    bool
	Demographics bool
	Settings     bool
	EntryID      string

	EventID string
	Handler string
}

// Snapshot is a consistent read of a ReadSet. Missing documents are nil.
type Snapshot struct {
	Overview     *models.OverviewStats
	Responses    *models.ResponseAggregates
	Demographics *models.DemographicsSummary
	Settings     *models.AdminSettings
	Entry        *models.Entry

	AlreadyApplied bool
}

// EntryMarker moves an entry's fully-reviewed marker from From to To. The
// commit fails with a conflict if the stored marker is no longer From.
type EntryMarker struct {
	EntryID string
	From    int64
	To      int64
}

// Writes are the documents a decision commits. Nil fields are untouched.
type Writes struct {
	Overview     *models.OverviewStats
	Responses    *models.ResponseAggregates
	Demographics *models.DemographicsSummary
	EntryMarker  *EntryMarker
}

type DecisionKind string

const (
	DecisionNoop   DecisionKind = "noop"
	DecisionUpdate DecisionKind = "update"
)

// Decision is the result of a pure compute step.
type Decision struct {
	Kind   DecisionKind
	Writes Writes
	Reason string
	// Clamped names counters that would have gone below zero.
	Clamped []string
}

func Noop(reason string) Decision {
	return Decision{Kind: DecisionNoop, Reason: reason}
}

func Update(w Writes) Decision {
	return Decision{Kind: DecisionUpdate, Writes: w}
}

// IsUpdate reports whether the decision commits anything.
func (d Decision) IsUpdate() bool { return d.Kind == DecisionUpdate }
