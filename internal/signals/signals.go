// Package signals collects binary site-hygiene and off-site presence
// signals for the audited brand.
package signals

import (
	"context"
	"net/url"
	"strings"

	"github.com/FranksOps/lumen/internal/storage"
)

// SiteSignals are markers found on the brand's own site. Each stays false when
// it cannot be determined.
type SiteSignals struct {
	OrganizationSchema bool `json:"organization_schema" yaml:"organization_schema"`
	FAQSchema          bool `json:"faq_schema" yaml:"faq_schema"`
	Hreflang           bool `json:"hreflang" yaml:"hreflang"`
	LocationPages      bool `json:"location_pages" yaml:"location_pages"`
	FAQRoute           bool `json:"faq_route" yaml:"faq_route"`
}

// OffsiteSignals maps every platform key to whether the brand was found there.
type OffsiteSignals map[string]bool

// Platform is a third-party site probed for the brand.
type Platform struct {
	Key string
	// SearchPrefix is followed by the query-escaped brand.
	SearchPrefix string
}

// URL is the page fetched to check brand on p.
func (p Platform) URL(brand string) string {
	return p.SearchPrefix + url.QueryEscape(brand)
}

// Platforms are probed in this order.
var Platforms = []Platform{
	{Key: "wikipedia", SearchPrefix: "https://en.wikipedia.org/wiki/"},
	{Key: "wikidata", SearchPrefix: "https://www.wikidata.org/wiki/Special:Search?search="},
	{Key: "g2", SearchPrefix: "https://www.g2.com/search?query="},
	{Key: "capterra", SearchPrefix: "https://www.capterra.com/search/?query="},
	{Key: "trustpilot", SearchPrefix: "https://www.trustpilot.com/search?query="},
	{Key: "linkedin", SearchPrefix: "https://www.linkedin.com/search/results/companies/?keywords="},
	{Key: "crunchbase", SearchPrefix: "https://www.crunchbase.com/discover/organization.companies/field/organizations/num_employees_enum/1?query="},
}

// PlatformKeys lists the platform keys in probe order.
func PlatformKeys() []string {
	keys := make([]string, len(Platforms))
	for i, p := range Platforms {
		keys[i] = p.Key
	}
	return keys
}

// NewOffsiteSignals returns signals with every known platform set to false.
func NewOffsiteSignals() OffsiteSignals {
	out := make(OffsiteSignals, len(Platforms))
	for _, p := range Platforms {
		out[p.Key] = false
	}
	return out
}

// Fetcher is the HTTP capability the checker needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*storage.FetchRecord, error)
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// HasSchemaType reports whether html carries a JSON-LD "@type" of typ, written
// either compactly ("@type":"X") or backslash-escaped inside a string
// (\"@type\":\"X\"). Other spellings, such as a space after the colon, are not
// recognized.
func HasSchemaType(html, typ string) bool {
	return strings.Contains(html, `"@type":"`+typ+`"`) ||
		strings.Contains(html, `\"@type\":\"`+typ+`\"`)
}

var locationKeywords = []string{"locations", "offices", "hq", "contact"}

// Inspect derives the homepage signals from its HTML. FAQRoute needs a
// separate fetch and is left false.
func Inspect(html string) SiteSignals {
	lower := strings.ToLower(html)
	var loc bool
	for _, kw := range locationKeywords {
		if strings.Contains(lower, kw) {
			loc = true
			break
		}
	}
	return SiteSignals{
		OrganizationSchema: HasSchemaType(html, "Organization"),
		FAQSchema:          HasSchemaType(html, "FAQPage"),
		Hreflang:           strings.Contains(html, `rel="alternate"`) || strings.Contains(html, "hreflang="),
		LocationPages:      loc,
	}
}
