package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/id"
	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/browser"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/generation"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/store"
)

type GenerateParams struct {
	URL             string
	UserDescription string
	DOMData         *browser.DOMData
	HTMLElements    []string
}

// GenerationService runs a generation end to end and records the outcome.
type GenerationService interface {
	Generate(ctx context.Context, params GenerateParams) (*model.GenerationRecord, error)
	Get(ctx context.Context, id int64) (*model.GenerationRecord, error)
	History(ctx context.Context, limit int32) ([]model.GenerationRecord, error)
}

type generationService struct {
	generator *generation.Generator
	store     store.GenerationStore
	modelName string
}

func NewGenerationService(gen *generation.Generator, st store.GenerationStore, modelName string) GenerationService {
	return &generationService{
		generator: gen,
		store:     st,
		modelName: modelName,
	}
}

func (s *generationService) Generate(ctx context.Context, params GenerateParams) (*model.GenerationRecord, error) {
	sc := logger.StartSpan(ctx, "generation.run")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()

	in := generation.Input{
		URL:             params.URL,
		UserDescription: params.UserDescription,
		HTMLElements:    params.HTMLElements,
	}
	if params.DOMData != nil {
		in.DOM = *params.DOMData
	}

	result := s.generator.Generate(ctx, in)

	rec := &model.GenerationRecord{
		ID:         id.New(),
		URL:        params.URL,
		Summary:    result.Summary,
		Tests:      result.Tests,
		Error:      result.Error,
		Model:      s.modelName,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if params.UserDescription != "" {
		rec.UserDescription = &params.UserDescription
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{GenerationID: logger.Ptr(rec.ID)})

	// History is best effort: a storage hiccup must not fail a run the
	// model already paid for.
	if err := s.store.Create(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to persist generation", "error", err)
	}

	slog.InfoContext(ctx, "generation complete",
		"tests", len(rec.Tests),
		"degraded", rec.Error,
		"duration_ms", rec.DurationMs)

	return rec, nil
}

func (s *generationService) Get(ctx context.Context, id int64) (*model.GenerationRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *generationService) History(ctx context.Context, limit int32) ([]model.GenerationRecord, error) {
	return s.store.List(ctx, limit)
}
