package fetch

import (
	"context"
	"log"
	"time"
)

// Posting is a job posting resolved from a URL.
type Posting struct {
	URL      string
	Platform Platform
	Text     string
	// Rendered is true when the text came from a headless browser pass.
	Rendered bool
}

// PostingOptions configures ExtractPosting.
type PostingOptions struct {
	// Timeout bounds both the HTTP fetch and the browser pass.
	Timeout time.Duration
	// UseBrowser allows falling back to headless rendering when the plain
	// fetch yields too little text, as SPA job boards do.
	UseBrowser bool
	Verbose    bool
}

// ExtractPosting fetches a job posting URL and extracts its description text
// using selectors for the detected ATS platform. When the plain HTTP fetch
// produces too little text and the browser fallback is enabled, the page is
// re-rendered headlessly before extraction.
func ExtractPosting(ctx context.Context, urlStr string, opts PostingOptions) (*Posting, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	platform := DetectPlatform(urlStr)
	if opts.Verbose {
		log.Printf("[FETCH] Detected platform %q for %s", platform, urlStr)
	}

	result, err := URL(ctx, urlStr, &Options{
		Timeout:   opts.Timeout,
		UserAgent: DefaultUserAgent,
	})
	if err != nil {
		return nil, err
	}

	text, err := ExtractMainText(result.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}

	posting := &Posting{URL: urlStr, Platform: platform, Text: text}
	if !ShouldUseBrowser(text) || !opts.UseBrowser {
		return posting, nil
	}

	if opts.Verbose {
		log.Printf("[FETCH] Extracted only %d chars, retrying with browser", len(text))
	}

	html, err := WithBrowser(ctx, urlStr, opts.Timeout, opts.Verbose)
	if err != nil {
		// The plain-fetch text is still usable when rendering fails.
		return posting, nil
	}

	rendered, err := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil || len(rendered) <= len(text) {
		return posting, nil
	}

	posting.Text = rendered
	posting.Rendered = true
	return posting, nil
}
