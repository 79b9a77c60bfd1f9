package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

// responseContract mirrors the JSON shape the model is asked to produce.
// Its reflected schema is embedded in the system prompt so the model sees
// the exact contract; output is still treated as unreliable free text.
type responseContract struct {
	Summary string           `json:"summary" jsonschema_description:"One or two sentences describing what the page does and what the tests cover"`
	Tests   []model.TestCase `json:"tests" jsonschema_description:"Generated Cypress test cases"`
}

var responseSchemaJSON = func() string {
	data, err := json.MarshalIndent(llm.GenerateSchema[responseContract](), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}()

var systemPrompt = `You are an expert QA engineer who writes Cypress end-to-end tests.

Given a description of a web page, respond with a JSON object containing a
short summary of the page and a list of test cases. Each test case has a
title, a rationale explaining why the test matters, ordered human-readable
steps, and a complete runnable Cypress test script in the code field.

Cover the page's critical user flows first: form submission, navigation,
authentication, and error states. Prefer resilient selectors (data-testid,
name, aria-label) over positional ones.

The response must match this JSON schema:

` + responseSchemaJSON

const strictInstruction = "\n\nIMPORTANT: Respond with ONLY the raw JSON object." +
	" No markdown fences, no commentary, no text before or after the JSON."

func buildPagePrompt(in Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate Cypress end-to-end tests for the page at %s.\n\n", in.URL)

	if in.UserDescription != "" {
		sb.WriteString("## What the user says about this page\n")
		sb.WriteString(in.UserDescription)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Page structure\n")
	if dom, err := json.Marshal(in.DOM); err == nil {
		sb.Write(dom)
	}
	sb.WriteString("\n")

	return sb.String()
}

func buildElementPrompt(in Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate Cypress end-to-end tests for the interactive elements of the page at %s.\n\n", in.URL)

	if in.UserDescription != "" {
		sb.WriteString("## What the user says about this page\n")
		sb.WriteString(in.UserDescription)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Interactive elements (raw HTML)\n")
	for _, el := range in.HTMLElements {
		sb.WriteString(el)
		sb.WriteString("\n")
	}

	return sb.String()
}
