package dto

import (
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/browser"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

type GenerateRequest struct {
	URL             string           `json:"url"`
	UserDescription string           `json:"userDescription"`
	Screenshot      string           `json:"screenshot"`
	DOMData         *browser.DOMData `json:"domData"`
	HTMLElements    []string         `json:"htmlElements"`
}

type SnapshotRequest struct {
	URL string `json:"url"`
}

// GenerateResponse is the wire shape of a generation outcome. _error marks a
// degraded run; tests may still be non-empty alongside it.
type GenerateResponse struct {
	ID      int64            `json:"id,string"`
	Summary string           `json:"summary"`
	Tests   []model.TestCase `json:"tests"`
	Error   bool             `json:"_error,omitempty"`
}
