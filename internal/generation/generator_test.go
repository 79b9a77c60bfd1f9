package generation_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/generation"
)

var _ = Describe("Generator", func() {
	var (
		mock   *mockLLM
		sleeps []time.Duration
		gen    *generation.Generator
	)

	newGen := func() *generation.Generator {
		return generation.NewGenerator(mock, generation.WithSleep(func(d time.Duration) {
			sleeps = append(sleeps, d)
		}))
	}

	BeforeEach(func() {
		mock = &mockLLM{}
		sleeps = nil
		gen = nil
	})

	Describe("GeneratePageTests", func() {
		It("returns the parsed result on the first attempt", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				return &llm.Response{
					Content:      `{"summary":"covers login","tests":[{"title":"logs in"}]}`,
					FinishReason: llm.FinishReasonStop,
				}, nil
			}
			gen = newGen()

			result := gen.GeneratePageTests(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Error).To(BeFalse())
			Expect(result.Summary).To(Equal("covers login"))
			Expect(result.Tests).To(HaveLen(1))
			Expect(mock.callCount()).To(Equal(1))
			Expect(sleeps).To(BeEmpty())
		})

		It("escalates to a strict prompt at a lower temperature after a parse failure", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				if mock.callCount() == 1 {
					return &llm.Response{Content: "sorry, no JSON here", FinishReason: llm.FinishReasonStop}, nil
				}
				return &llm.Response{Content: `{"summary":"ok","tests":[]}`, FinishReason: llm.FinishReasonStop}, nil
			}
			gen = newGen()

			result := gen.GeneratePageTests(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Error).To(BeFalse())
			Expect(mock.callCount()).To(Equal(2))

			first, second := mock.call(0), mock.call(1)
			Expect(first.UserPrompt).NotTo(ContainSubstring("ONLY the raw JSON"))
			Expect(*first.Temperature).To(BeNumerically("==", 0.7))
			Expect(second.UserPrompt).To(ContainSubstring("ONLY the raw JSON"))
			Expect(*second.Temperature).To(BeNumerically("==", 0.3))
		})

		It("degrades to a scraped fallback after exhausting attempts", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				return &llm.Response{
					Content:      `not JSON, but it mentions "title": "leftover test" in passing`,
					FinishReason: llm.FinishReasonStop,
				}, nil
			}
			gen = newGen()

			result := gen.GeneratePageTests(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Error).To(BeTrue())
			Expect(result.Tests).To(HaveLen(1))
			Expect(result.Tests[0].Title).To(Equal("leftover test"))
			Expect(mock.callCount()).To(Equal(3))
			Expect(sleeps).To(Equal([]time.Duration{1 * time.Second, 2 * time.Second}))
		})

		It("retries transport failures with growing backoff", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				if mock.callCount() < 3 {
					return nil, errors.New("connection reset")
				}
				return &llm.Response{Content: `{"summary":"ok","tests":[]}`, FinishReason: llm.FinishReasonStop}, nil
			}
			gen = newGen()

			result := gen.GeneratePageTests(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Error).To(BeFalse())
			Expect(mock.callCount()).To(Equal(3))
			Expect(sleeps).To(Equal([]time.Duration{1 * time.Second, 2 * time.Second}))
		})

		It("gives up immediately on a non-retryable error", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				return nil, context.Canceled
			}
			gen = newGen()

			result := gen.GeneratePageTests(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Error).To(BeTrue())
			Expect(result.Tests).To(BeEmpty())
			Expect(mock.callCount()).To(Equal(1))
			Expect(sleeps).To(BeEmpty())
		})
	})

	Describe("GenerateElementTests", func() {
		It("allows fewer attempts than page generation", func() {
			mock.chatFn = func(_ context.Context, _ llm.Request) (*llm.Response, error) {
				return &llm.Response{Content: "garbage", FinishReason: llm.FinishReasonStop}, nil
			}
			gen = newGen()

			result := gen.GenerateElementTests(context.Background(), generation.Input{
				URL:          "https://example.com",
				HTMLElements: []string{`<button id="save">Save</button>`},
			})

			Expect(result.Error).To(BeTrue())
			Expect(mock.callCount()).To(Equal(2))
		})
	})

	Describe("Generate", func() {
		elementResponse := `{"summary":"element tests","tests":[{"title":"B"},{"title":"C"}]}`
		pageResponse := `{"summary":"page tests","tests":[{"title":"A"},{"title":"B"}]}`

		routeByPrompt := func(_ context.Context, req llm.Request) (*llm.Response, error) {
			content := pageResponse
			if strings.Contains(req.UserPrompt, "<button") {
				content = elementResponse
			}
			return &llm.Response{Content: content, FinishReason: llm.FinishReasonStop}, nil
		}

		It("merges page and element tests, dropping exact duplicate titles", func() {
			mock.chatFn = routeByPrompt
			gen = newGen()

			result := gen.Generate(context.Background(), generation.Input{
				URL:          "https://example.com",
				HTMLElements: []string{`<button id="save">Save</button>`},
			})

			Expect(result.Error).To(BeFalse())
			Expect(result.Summary).To(Equal("page tests"))

			titles := make([]string, 0, len(result.Tests))
			for _, t := range result.Tests {
				titles = append(titles, t.Title)
			}
			Expect(titles).To(Equal([]string{"A", "B", "C"}))
		})

		It("skips element generation when no elements are supplied", func() {
			mock.chatFn = routeByPrompt
			gen = newGen()

			result := gen.Generate(context.Background(), generation.Input{URL: "https://example.com"})

			Expect(result.Summary).To(Equal("page tests"))
			Expect(mock.callCount()).To(Equal(1))
		})

		It("keeps page tests and flags the result when element generation degrades", func() {
			mock.chatFn = func(ctx context.Context, req llm.Request) (*llm.Response, error) {
				if strings.Contains(req.UserPrompt, "<button") {
					return nil, context.Canceled
				}
				return routeByPrompt(ctx, req)
			}
			gen = newGen()

			result := gen.Generate(context.Background(), generation.Input{
				URL:          "https://example.com",
				HTMLElements: []string{`<button id="save">Save</button>`},
			})

			Expect(result.Error).To(BeTrue())
			Expect(result.Summary).To(Equal("page tests"))
			Expect(len(result.Tests)).To(BeNumerically(">=", 2))
		})
	})
})
