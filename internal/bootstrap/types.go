package bootstrap

// Status values used across RunResult and PhaseResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
	StatusSkipped    = "skipped"
)

// Phase names, in execution order.
const (
	PhaseStaticfiles = "staticfiles"
	PhaseMigrate     = "migrate"
	PhaseSuperuser   = "superuser"
	PhaseSeed        = "seed"
)

// RunResult is the aggregate result of a full bootstrap run. Phases is ordered:
// the run is strictly sequential, and everything after the first error is
// recorded as skipped.
type RunResult struct {
	Status string        `json:"status"` // "ok", "error", "in-progress"
	Phases []PhaseResult `json:"phases"`
}

// PhaseResult is the outcome of a single bootstrap phase.
type PhaseResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "error", "skipped"
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether any phase ended in error.
func (r *RunResult) Failed() bool {
	for _, p := range r.Phases {
		if p.Status == StatusError {
			return true
		}
	}
	return false
}

// ProbeResult is returned by RunDeepHealth for each dependency.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}
