package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
)

// DOMData is the structured page summary fed into the page-level prompt.
type DOMData struct {
	Title    string   `json:"title"`
	Forms    []Form   `json:"forms"`
	Links    []Link   `json:"links"`
	Buttons  []Button `json:"buttons"`
	Headings []string `json:"headings"`
}

type Form struct {
	Selector string      `json:"selector"`
	Inputs   []FormInput `json:"inputs"`
}

type FormInput struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"required"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type Button struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Cap truncates each element list to max entries for prompt-size control.
func (d *DOMData) Cap(max int) {
	if len(d.Forms) > max {
		d.Forms = d.Forms[:max]
	}
	if len(d.Links) > max {
		d.Links = d.Links[:max]
	}
	if len(d.Buttons) > max {
		d.Buttons = d.Buttons[:max]
	}
	if len(d.Headings) > max {
		d.Headings = d.Headings[:max]
	}
}

// Snapshot is the full capture of a rendered page.
type Snapshot struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Screenshot   string   `json:"screenshot"` // base64 PNG data URI
	DOM          DOMData  `json:"domData"`
	HTMLElements []string `json:"htmlElements"`
}

type Config struct {
	NavTimeout  time.Duration
	MaxElements int
}

// Capturer renders pages in headless Chrome and extracts the material the
// generation prompts need: a full-page screenshot, a structured DOM summary,
// and cleaned HTML excerpts of the interactive elements.
type Capturer struct {
	navTimeout  time.Duration
	maxElements int
}

func NewCapturer(cfg Config) *Capturer {
	navTimeout := cfg.NavTimeout
	if navTimeout == 0 {
		navTimeout = 30 * time.Second
	}
	maxElements := cfg.MaxElements
	if maxElements == 0 {
		maxElements = 50
	}
	return &Capturer{
		navTimeout:  navTimeout,
		maxElements: maxElements,
	}
}

// Capture renders pageURL and returns a Snapshot. The browser context is
// scoped to this call and released on every exit path via the deferred
// cancels, including panics inside chromedp.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	sc := logger.StartSpan(ctx, "browser.capture")
	defer sc.End()
	ctx = sc.Context()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.navTimeout)
	defer cancelRun()

	var (
		title   string
		rawHTML string
		domJSON string
		shot    []byte
	)

	start := time.Now()
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond), // let client-side rendering settle
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &rawHTML, chromedp.ByQuery),
		chromedp.Evaluate(extractDOMScript, &domJSON),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			shot, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("capturing page: %w", err)
	}

	var dom DOMData
	if domJSON != "" && domJSON != "null" && domJSON != "undefined" {
		if err := json.Unmarshal([]byte(domJSON), &dom); err != nil {
			slog.WarnContext(ctx, "dom extraction produced invalid json", "error", err)
		}
	}
	dom.Cap(c.maxElements)

	cleaned, err := CleanHTML(rawHTML)
	if err != nil {
		slog.WarnContext(ctx, "html cleanup failed, using raw html", "error", err)
		cleaned = rawHTML
	}

	slog.InfoContext(ctx, "page captured",
		"url", pageURL,
		"title", title,
		"duration_ms", time.Since(start).Milliseconds())

	return &Snapshot{
		URL:          pageURL,
		Title:        title,
		Screenshot:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot),
		DOM:          dom,
		HTMLElements: ExtractInteractiveElements(cleaned, c.maxElements),
	}, nil
}

// extractDOMScript summarizes the page's testable surface: forms with their
// inputs, visible links and buttons, and heading text. Only visible elements
// are included.
const extractDOMScript = `
	(function() {
		function visible(el) {
			return el.offsetParent !== null;
		}
		function text(el) {
			return (el.textContent || '').trim().slice(0, 120);
		}

		const forms = [];
		document.querySelectorAll('form').forEach((form, i) => {
			const inputs = [];
			form.querySelectorAll('input, textarea, select').forEach(input => {
				if (input.type === 'hidden') return;
				inputs.push({
					type: input.type || input.tagName.toLowerCase(),
					name: input.name || '',
					placeholder: input.placeholder || '',
					required: !!input.required
				});
			});
			const selector = form.id ? '#' + form.id : 'form:nth-of-type(' + (i + 1) + ')';
			forms.push({ selector: selector, inputs: inputs });
		});

		const links = [];
		document.querySelectorAll('a[href]').forEach(a => {
			if (visible(a)) links.push({ text: text(a), href: a.getAttribute('href') || '' });
		});

		const buttons = [];
		document.querySelectorAll('button, input[type="button"], input[type="submit"]').forEach(b => {
			if (visible(b)) buttons.push({ text: text(b) || b.value || '', type: b.type || 'button' });
		});

		const headings = [];
		document.querySelectorAll('h1, h2, h3').forEach(h => {
			const t = text(h);
			if (t) headings.push(t);
		});

		return JSON.stringify({
			title: document.title,
			forms: forms,
			links: links,
			buttons: buttons,
			headings: headings
		});
	})();
`
