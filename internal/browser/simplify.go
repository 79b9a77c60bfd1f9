package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Attributes that matter for writing selectors; everything else is noise
// that only inflates the prompt.
var keptAttributes = map[string]bool{
	"id":          true,
	"class":       true,
	"name":        true,
	"type":        true,
	"href":        true,
	"placeholder": true,
	"value":       true,
	"required":    true,
	"role":        true,
	"aria-label":  true,
	"data-testid": true,
	"action":      true,
	"method":      true,
	"for":         true,
}

// CleanHTML reduces page HTML for prompting: scripts, styles and hidden
// elements are removed and attributes are cut down to the selector-relevant
// whitelist.
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	doc.Find("script, style, noscript, iframe, svg, link, meta").Remove()

	doc.Find("[hidden]").Remove()
	doc.Find("[style*='display:none'], [style*='display: none']").Remove()
	doc.Find("[style*='visibility:hidden'], [style*='visibility: hidden']").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			removeComments(node)
			filterAttributes(node)
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return out, nil
}

// ExtractInteractiveElements returns the outer HTML of the page's
// interactive elements, capped at max entries.
func ExtractInteractiveElements(htmlContent string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("form, a[href], button, input, select, textarea").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(out) >= max {
			return false
		}
		h, err := goquery.OuterHtml(s)
		if err != nil {
			return true
		}
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
		return true
	})
	return out
}

func removeComments(node *html.Node) {
	var comments []*html.Node
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			comments = append(comments, c)
		}
	}
	for _, c := range comments {
		node.RemoveChild(c)
	}
}

func filterAttributes(node *html.Node) {
	if node.Type != html.ElementNode {
		return
	}
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if keptAttributes[attr.Key] {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}
