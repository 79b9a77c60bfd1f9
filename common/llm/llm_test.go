package llm_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
)

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(llm.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("reports the configured model", func() {
		client, err := llm.New(llm.Config{APIKey: "sk-test", Model: "gpt-4o"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o"))
	})

	It("defaults the model when unset", func() {
		client, err := llm.New(llm.Config{APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o-mini"))
	})
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	It("treats nil as not retryable", func() {
		Expect(llm.IsRetryable(ctx, nil)).To(BeFalse())
	})

	It("does not retry context cancellation", func() {
		Expect(llm.IsRetryable(ctx, context.Canceled)).To(BeFalse())
		Expect(llm.IsRetryable(ctx, context.DeadlineExceeded)).To(BeFalse())
	})

	It("retries plain network errors", func() {
		Expect(llm.IsRetryable(ctx, errors.New("connection reset by peer"))).To(BeTrue())
	})

	It("unwraps wrapped context errors", func() {
		wrapped := errors.Join(errors.New("openai chat"), context.Canceled)
		Expect(llm.IsRetryable(ctx, wrapped)).To(BeFalse())
	})
})

var _ = Describe("Temp", func() {
	It("returns a pointer to the given temperature", func() {
		t := llm.Temp(0.3)
		Expect(*t).To(BeNumerically("==", 0.3))
	})
})
