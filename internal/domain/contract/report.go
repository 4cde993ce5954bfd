package contract

import "fmt"

// BatchReport aggregates the outcome of a batch contract run. Iterations
// that fail add an error string and the run continues; the report is what
// operators see at the end.
type BatchReport struct {
	Negotiated int      `json:"negotiated"`
	Accepted   int      `json:"accepted"`
	Fulfilled  int      `json:"fulfilled"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// RecordNegotiated counts a successful negotiation
func (r *BatchReport) RecordNegotiated() { r.Negotiated++ }

// RecordAccepted counts a successful acceptance
func (r *BatchReport) RecordAccepted() { r.Accepted++ }

// RecordFulfilled counts a successful fulfillment
func (r *BatchReport) RecordFulfilled() { r.Fulfilled++ }

// RecordFailure counts a failed iteration and keeps its error string
func (r *BatchReport) RecordFailure(iteration int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("iteration %d: %v", iteration, err))
}

// Summary renders the report as a single log-friendly line
func (r *BatchReport) Summary() string {
	return fmt.Sprintf("negotiated=%d accepted=%d fulfilled=%d failed=%d",
		r.Negotiated, r.Accepted, r.Fulfilled, r.Failed)
}
