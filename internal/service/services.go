package service

import (
	"context"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/browser"
)

// SnapshotService captures a rendered page. *browser.Capturer satisfies it;
// handlers depend on the interface so tests can stub the browser away.
type SnapshotService interface {
	Capture(ctx context.Context, url string) (*browser.Snapshot, error)
}

// Services bundles the request-facing services for router wiring.
type Services struct {
	Generation GenerationService
	Snapshots  SnapshotService
}
