// Package report defines the compliance report that every pipeline stage
// writes into. Diagnostics are accumulated as explicit values threaded
// through the stages and returned to the caller; there is no global state.
package report

import (
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Check is one structural check result.
type Check struct {
	Name        string `json:"name"`
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
}

// Report is the machine-readable outcome of one document run. It is pure
// output: nothing in the engine reads it back.
type Report struct {
	RunID       string            `json:"run_id"`
	Status      string            `json:"status"`
	Checks      []Check           `json:"checks"`
	Errors      []string          `json:"errors"`
	Warnings    []string          `json:"warnings"`
	Ambiguities []string          `json:"ambiguities"`
	Digests     map[string]string `json:"digests,omitempty"`
}

const (
	// StatusPass means validation and every structural check succeeded.
	StatusPass = "pass"
	// StatusFail means at least one check failed or an error was recorded.
	StatusFail = "fail"
)

// New creates an empty report with a fresh run id.
func New() *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Status:      StatusPass,
		Checks:      []Check{},
		Errors:      []string{},
		Warnings:    []string{},
		Ambiguities: []string{},
	}
}

// AddCheck records a structural check result.
func (r *Report) AddCheck(name string, passed bool, description string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Description: description})
}

// Warnf records a best-effort repair that was applied.
func (r *Report) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Errorf records a non-fatal error, such as a failed schema validation.
func (r *Report) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Ambiguousf records content the heuristics could not confidently classify.
// The content itself is left untouched by the pipeline.
func (r *Report) Ambiguousf(format string, args ...any) {
	r.Ambiguities = append(r.Ambiguities, fmt.Sprintf(format, args...))
}

// RecordDigest stores the BLAKE3 digest of an emitted serialization so the
// packaging step can audit what it shipped.
func (r *Report) RecordDigest(name string, data []byte) {
	if r.Digests == nil {
		r.Digests = make(map[string]string)
	}
	sum := blake3.Sum256(data)
	r.Digests[name] = hex.EncodeToString(sum[:])
}

// Finalize computes the overall status from the accumulated checks and
// errors and returns the report for chaining.
func (r *Report) Finalize() *Report {
	r.Status = StatusPass
	if len(r.Errors) > 0 {
		r.Status = StatusFail
	}
	for _, c := range r.Checks {
		if !c.Passed {
			r.Status = StatusFail
			break
		}
	}
	return r
}

// Passed reports whether the finalized status is pass.
func (r *Report) Passed() bool {
	return r.Status == StatusPass
}

// JSON serializes the report for downstream consumers.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
