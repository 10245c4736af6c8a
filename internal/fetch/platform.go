package fetch

import (
	"net/url"
	"strings"
)

// Platform is a recognized applicant tracking system hosting a job posting.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

// hostPatterns maps hostname substrings to their platform. Boards are served
// from the vendor's domain even when branded for the hiring company.
var hostPatterns = []struct {
	substr   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
}

// DetectPlatform identifies the ATS hosting a posting URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	for _, p := range hostPatterns {
		if strings.Contains(host, p.substr) {
			return p.platform
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns the CSS selectors that locate the posting
// description on a given platform, most specific first.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		}
	case PlatformLever:
		return []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobDescription']",
			".WDXK",
			".gwt-HTML",
			".job-description",
		}
	case PlatformAshby:
		return []string{
			"#job-overview",
			".ashby-job-posting-content",
			"[class*='_description']",
			"main",
		}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns the selectors to strip before extraction:
// application forms, EEO sections, share widgets, and cookie banners, plus
// platform-specific chrome.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		"#application-form",
		".application-form",
		".application--container",
		".apply-button-container",
		"[data-testid='application-form']",

		".voluntary-disclosure",
		".eeo-statement",
		".eeo-section",
		"[data-testid='eeo']",
		".legal-disclosure",
		".self-identification",

		".social-share",
		".share-buttons",
		".social-links",

		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common,
			".application--wrapper",
			".voluntary-self-id",
			".voluntary-self-id-wrapper",
			"#usa_self_id_section",
			".post-apply",
		)
	case PlatformLever:
		return append(common,
			".apply-section",
			".lever-application-form",
			".posting-apply",
		)
	case PlatformWorkday:
		return append(common,
			"[data-automation-id='applyButton']",
			".application-section",
			".WDAF",
		)
	case PlatformAshby:
		return append(common,
			".ashby-application-form",
			"[class*='_applicationForm']",
		)
	default:
		return common
	}
}
