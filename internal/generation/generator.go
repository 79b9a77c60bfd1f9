package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/browser"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

const (
	// Page-level generation gets one more attempt than element-level: the
	// page prompt is the primary output and worth the extra model call.
	pageMaxAttempts    = 3
	elementMaxAttempts = 2

	initialTemperature = 0.7
	strictTemperature  = 0.3
)

// Generator turns page snapshots into Cypress test suites via the model,
// with bounded retries and guaranteed-structured degraded output.
type Generator struct {
	llm   llm.Client
	sleep func(time.Duration)
}

type Option func(*Generator)

// WithSleep overrides the backoff sleep. Used by tests to avoid real delays.
func WithSleep(fn func(time.Duration)) Option {
	return func(g *Generator) { g.sleep = fn }
}

func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		llm:   client,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Input carries everything known about the target page.
type Input struct {
	URL             string
	UserDescription string
	DOM             browser.DOMData
	HTMLElements    []string
}

// Generate runs page-level generation, and element-level generation when raw
// HTML excerpts are available, concurrently. The two calls are fault
// isolated: a panic or degraded result on one side never affects the other,
// and results are combined only after both complete. The return value is
// always a well-formed GenerationResult.
func (g *Generator) Generate(ctx context.Context, in Input) model.GenerationResult {
	var pageResult, elementResult model.GenerationResult
	runElements := len(in.HTMLElements) > 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer recoverDegraded(ctx, &pageResult)
		pageCtx := logger.WithLogFields(ctx, logger.LogFields{Component: "generation.page"})
		pageResult = g.generate(pageCtx, buildPagePrompt(in), pageMaxAttempts)
	}()

	if runElements {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverDegraded(ctx, &elementResult)
			elemCtx := logger.WithLogFields(ctx, logger.LogFields{Component: "generation.element"})
			elementResult = g.generate(elemCtx, buildElementPrompt(in), elementMaxAttempts)
		}()
	}

	wg.Wait()
	return combine(pageResult, elementResult, runElements)
}

// GeneratePageTests generates tests from the page-level DOM summary alone.
func (g *Generator) GeneratePageTests(ctx context.Context, in Input) model.GenerationResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "generation.page"})
	return g.generate(ctx, buildPagePrompt(in), pageMaxAttempts)
}

// GenerateElementTests generates tests from raw HTML element excerpts.
func (g *Generator) GenerateElementTests(ctx context.Context, in Input) model.GenerationResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "generation.element"})
	return g.generate(ctx, buildElementPrompt(in), elementMaxAttempts)
}

// generate is the bounded retry loop shared by both call sites. Parse
// failures escalate to a strict bare-JSON instruction at a lower sampling
// temperature; transport failures reuse the same backoff without changing
// strictness. Backoff grows with the attempt number (1s, 2s, ...). Once
// attempts are exhausted the last raw response is scraped into a degraded
// result — this function cannot fail.
func (g *Generator) generate(ctx context.Context, prompt string, maxAttempts int) model.GenerationResult {
	var lastRaw string
	strict := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx := logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(attempt)})

		userPrompt := prompt
		temperature := initialTemperature
		if strict {
			userPrompt += strictInstruction
			temperature = strictTemperature
		}

		resp, err := g.llm.Chat(ctx, llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Temperature:  llm.Temp(temperature),
		})
		if err != nil {
			if !llm.IsRetryable(ctx, err) {
				slog.ErrorContext(ctx, "model call failed, not retryable", "error", err)
				break
			}
			if attempt < maxAttempts {
				g.sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}

		lastRaw = resp.Content
		if result, ok := Reconcile(resp.Content, resp.FinishReason); ok {
			slog.InfoContext(ctx, "generation parsed",
				"tests", len(result.Tests),
				"finish_reason", resp.FinishReason,
				"strict", strict)
			return result
		}

		slog.WarnContext(ctx, "model output did not parse",
			"finish_reason", resp.FinishReason,
			"raw", logger.Truncate(resp.Content, 200))
		strict = true
		if attempt < maxAttempts {
			g.sleep(time.Duration(attempt) * time.Second)
		}
	}

	slog.WarnContext(ctx, "generation degraded to fallback scrape")
	return ScrapeFallback(lastRaw)
}

func combine(page, element model.GenerationResult, ranElement bool) model.GenerationResult {
	out := model.GenerationResult{
		Summary: page.Summary,
		Tests:   []model.TestCase{},
		Error:   page.Error || (ranElement && element.Error),
	}
	if out.Summary == "" && ranElement {
		out.Summary = element.Summary
	}

	// Duplicate detection is exact title match only; titles differing in
	// whitespace or casing are admitted as distinct.
	seen := make(map[string]bool)
	for _, t := range page.Tests {
		if seen[t.Title] {
			continue
		}
		seen[t.Title] = true
		out.Tests = append(out.Tests, t)
	}
	for _, t := range element.Tests {
		if seen[t.Title] {
			continue
		}
		seen[t.Title] = true
		out.Tests = append(out.Tests, t)
	}

	return out
}

func recoverDegraded(ctx context.Context, result *model.GenerationResult) {
	if r := recover(); r != nil {
		slog.ErrorContext(ctx, "generation panic recovered", "panic", r)
		*result = model.GenerationResult{
			Summary: "Test generation failed unexpectedly.",
			Tests:   []model.TestCase{},
			Error:   true,
		}
	}
}
