package model

import "time"

// TestCase is one generated Cypress test: what it checks, why, and the
// script text itself.
type TestCase struct {
	Title     string   `json:"title" jsonschema_description:"Short descriptive name of the test"`
	Rationale string   `json:"rationale,omitempty" jsonschema_description:"Why this test matters for the page"`
	Steps     []string `json:"steps,omitempty" jsonschema_description:"Ordered human-readable steps the test performs"`
	Code      string   `json:"code,omitempty" jsonschema_description:"Complete Cypress test script"`
}

// GenerationResult is the terminal artifact of a generation run.
// Error set to true means the run degraded to best-effort recovery; it does
// NOT mean Tests is empty — partially recovered cases are still returned.
type GenerationResult struct {
	Summary string     `json:"summary"`
	Tests   []TestCase `json:"tests"`
	Error   bool       `json:"_error,omitempty"`
}

// GenerationRecord is a persisted generation run.
type GenerationRecord struct {
	ID              int64      `json:"id,string"`
	URL             string     `json:"url"`
	UserDescription *string    `json:"userDescription,omitempty"`
	Summary         string     `json:"summary"`
	Tests           []TestCase `json:"tests"`
	Error           bool       `json:"_error,omitempty"`
	Model           string     `json:"model"`
	DurationMs      int64      `json:"durationMs"`
	CreatedAt       time.Time  `json:"createdAt"`
}
