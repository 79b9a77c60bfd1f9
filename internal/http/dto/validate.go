package dto

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxURLLength         = 2048
	maxDescriptionLength = 500
	maxScreenshotLength  = 7 << 20 // ~5MB of PNG once base64 overhead is counted
	maxElements          = 50

	screenshotPrefix = "data:image/png;base64,"
)

var (
	injectionRe = regexp.MustCompile(`(?i)(<\s*script|javascript:|vbscript:|data:text/html|on\w+\s*=)`)

	descriptionSanitizer = strings.NewReplacer(
		"<", "", ">", "", `"`, "", "'", "", `\`, "", "\x00", "")
)

// Validate checks and normalizes the request in place. Returned reasons are
// itemized for the 400 body; an empty slice means the request is acceptable.
func (r *GenerateRequest) Validate(isProduction bool) []string {
	errs := validateTargetURL(r.URL, isProduction)

	if len(r.UserDescription) > maxDescriptionLength {
		errs = append(errs, fmt.Sprintf("userDescription exceeds %d characters", maxDescriptionLength))
	} else {
		r.UserDescription = descriptionSanitizer.Replace(r.UserDescription)
	}

	if r.Screenshot != "" {
		if !strings.HasPrefix(r.Screenshot, screenshotPrefix) {
			errs = append(errs, "screenshot must be a base64 PNG data URI")
		} else if len(r.Screenshot) > maxScreenshotLength {
			errs = append(errs, "screenshot exceeds maximum size")
		}
	}

	// Prompt-size control, not a rejection: oversized element lists are
	// silently capped.
	if len(r.HTMLElements) > maxElements {
		r.HTMLElements = r.HTMLElements[:maxElements]
	}
	if r.DOMData != nil {
		r.DOMData.Cap(maxElements)
	}

	return errs
}

func (r *SnapshotRequest) Validate(isProduction bool) []string {
	return validateTargetURL(r.URL, isProduction)
}

func validateTargetURL(raw string, isProduction bool) []string {
	if raw == "" {
		return []string{"url is required"}
	}

	var errs []string
	if len(raw) > maxURLLength {
		errs = append(errs, fmt.Sprintf("url exceeds %d characters", maxURLLength))
	}
	if injectionRe.MatchString(raw) {
		errs = append(errs, "url contains a disallowed pattern")
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return append(errs, "url must be a valid http or https URL")
	}
	if u.Host == "" {
		return append(errs, "url must include a host")
	}
	if isProduction && isInternalHost(u.Hostname()) {
		errs = append(errs, "url points at an internal address")
	}

	return errs
}

// isInternalHost blocks literal localhost/private/internal targets in
// production so the headless browser cannot be pointed at the service's own
// network.
func isInternalHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") ||
		strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	return false
}
