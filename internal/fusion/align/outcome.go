package align

// Outcome distinguishes a successful alignment from the cases where the
// data cannot support one. A zero lag or identity transform with
// OutcomeAligned is a valid answer, not a failure.
type Outcome string

const (
	OutcomeAligned          Outcome = "aligned"
	OutcomeNoCandidates     Outcome = "no_candidates"     // no detection passed any gate
	OutcomeInsufficientData Outcome = "insufficient_data" // too few samples or pairs
)

// OK reports whether alignment succeeded.
func (o Outcome) OK() bool { return o == OutcomeAligned }
