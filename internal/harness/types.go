package harness

// TraceEvent records one evaluated assertion: what was asked and what the
// configuration answered.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Type     string `json:"type"`
	Subject  string `json:"subject,omitempty"`
	Observed any    `json:"observed,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// SessionID identifies the session the configuration was loaded in.
	// Empty when loading failed.
	SessionID string `json:"session_id,omitempty"`

	// Mode and ConfigHash describe the loaded configuration.
	Mode       string `json:"mode,omitempty"`
	ConfigHash string `json:"config_hash,omitempty"`

	// LoadError is the error code when loading failed.
	LoadError string `json:"load_error,omitempty"`

	// Trace contains one event per assertion, in order.
	// Used for golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event with the next sequence number.
func (r *Result) AddTrace(typ, subject string, observed any) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      int64(len(r.Trace) + 1),
		Type:     typ,
		Subject:  subject,
		Observed: observed,
	})
}
