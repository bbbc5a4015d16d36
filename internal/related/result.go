package related

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/pkg/reconcile"
)

// Outcome is the type-independent view of one write of a phase.
type Outcome struct {
	Phase      string `json:"phase"`
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
	Err        error  `json:"-"`
}

// Failed reports whether the write did not succeed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	var msg string
	if o.Err != nil {
		msg = o.Err.Error()
	}
	return json.Marshal(struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias(o), msg})
}

// PhaseResult is the settled state of one reconciliation pass.
type PhaseResult struct {
	Phase    string
	Plan     reconcile.Plan
	Outcomes []Outcome
	// LoadErr is set when the existing records could not be fetched; no writes were made.
	LoadErr error
	// BatchErr is the first write failure observed.
	BatchErr error
	// Truncated is set when storage held more existing records than one page returned.
	Truncated bool
}

// Err returns the load failure or the first write failure of the phase.
func (p PhaseResult) Err() error {
	if p.LoadErr != nil {
		return p.LoadErr
	}
	return p.BatchErr
}

func phaseResultOf[T reconcile.Record[T]](phase string, plan reconcile.Plan, batch *reconcile.Batch[T]) PhaseResult {
	pr := PhaseResult{
		Phase:    phase,
		Plan:     plan,
		Outcomes: make([]Outcome, 0, len(batch.Outcomes)),
		BatchErr: batch.Err(),
	}
	for _, o := range batch.Outcomes {
		out := Outcome{
			Phase: phase,
			Kind:  o.Operation.Kind.String(),
			ID:    o.Operation.ID,
			Err:   o.Failure(),
		}
		if o.Response != nil {
			out.StatusCode = o.Response.StatusCode
			if !o.Response.IsSuccess() {
				out.Body = string(o.Response.Body)
			}
		}
		pr.Outcomes = append(pr.Outcomes, out)
	}
	return pr
}

// Result is the outcome of synchronising the related records of one instance.
type Result struct {
	InstanceID string
	Started    time.Time
	Finished   time.Time
	// Phases holds every phase that was attempted, in execution order.
	Phases []PhaseResult
}

// Err returns the first failure in phase order, or nil when every phase succeeded.
func (r *Result) Err() error {
	for _, p := range r.Phases {
		if err := p.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Errs joins every phase failure.
func (r *Result) Errs() error {
	var errs []error
	for _, p := range r.Phases {
		if err := p.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Outcomes returns every individual write outcome across phases.
func (r *Result) Outcomes() []Outcome {
	var all []Outcome
	for _, p := range r.Phases {
		all = append(all, p.Outcomes...)
	}
	return all
}

// Failed returns the failed writes across phases.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes() {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Report is the serialisable summary of a Result.
type Report struct {
	InstanceID string        `json:"instanceId"`
	Started    time.Time     `json:"started"`
	Finished   time.Time     `json:"finished"`
	Succeeded  bool          `json:"succeeded"`
	Error      string        `json:"error,omitempty"`
	Phases     []PhaseReport `json:"phases"`
}

// PhaseReport summarises one phase.
type PhaseReport struct {
	Phase     string         `json:"phase"`
	Plan      reconcile.Plan `json:"plan"`
	LoadError string         `json:"loadError,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
	Outcomes  []Outcome      `json:"outcomes"`
}

// Report builds the serialisable summary.
func (r *Result) Report() Report {
	rep := Report{
		InstanceID: r.InstanceID,
		Started:    r.Started,
		Finished:   r.Finished,
		Succeeded:  r.Err() == nil,
		Phases:     make([]PhaseReport, 0, len(r.Phases)),
	}
	if err := r.Errs(); err != nil {
		rep.Error = err.Error()
	}
	for _, p := range r.Phases {
		pr := PhaseReport{Phase: p.Phase, Plan: p.Plan, Truncated: p.Truncated, Outcomes: p.Outcomes}
		if pr.Outcomes == nil {
			pr.Outcomes = []Outcome{}
		}
		if p.LoadErr != nil {
			pr.LoadError = p.LoadErr.Error()
		}
		rep.Phases = append(rep.Phases, pr)
	}
	return rep
}
