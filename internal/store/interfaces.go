package store

import (
	"context"
	"errors"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

var ErrNotFound = errors.New("generation not found")

// GenerationStore persists completed generation runs and serves history.
type GenerationStore interface {
	Create(ctx context.Context, rec *model.GenerationRecord) error
	Get(ctx context.Context, id int64) (*model.GenerationRecord, error)
	List(ctx context.Context, limit int32) ([]model.GenerationRecord, error)
}
