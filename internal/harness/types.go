package harness

// TraceEvent records one scenario step and the session it left behind.
type TraceEvent struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`

	// Loads lists the source calls the step caused, in call order.
	Loads []string `json:"loads,omitempty"`

	// Notices lists the titles of notices the step caused.
	Notices []string `json:"notices,omitempty"`

	State Snapshot `json:"state"`
}

// Snapshot is the observable part of a session after a step.
type Snapshot struct {
	Address  string   `json:"address"`
	Visible  []string `json:"visible"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	View     string   `json:"view"`
	Loading  bool     `json:"loading"`
	Error    string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace has one event for session start and one per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Pages lists every page requested from the source, in order.
	Pages []int `json:"pages"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Pages:  []int{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the snapshot after the last step.
func (r *Result) Final() Snapshot {
	if len(r.Trace) == 0 {
		return Snapshot{}
	}
	return r.Trace[len(r.Trace)-1].State
}
