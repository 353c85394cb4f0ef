// Package bypass recognizes responses where an anti-bot layer blocked or
// challenged the request instead of serving the page.
package bypass

import (
	"bytes"
	"net/http"
	"slices"
	"strings"

	"github.com/FranksOps/lumen/internal/storage"
)

// Detector examines a fetch record and reports whether a bot protection
// mechanism answered, and which one.
type Detector func(rec *storage.FetchRecord) (detected bool, source string)

// Signature describes how one vendor's block page looks. A record matches when
// its status is listed and at least one of the hints is present.
type Signature struct {
	Source      string
	Statuses    []int
	ServerHints []string // lowercase substrings of the Server header
	Headers     []string // presence of any of these headers
	BodyMarkers []string
	URLMarkers  []string // substrings of the final URL, for redirect-based walls
}

// Detector turns the signature into a Detector.
func (s Signature) Detector() Detector {
	return func(rec *storage.FetchRecord) (bool, string) {
		if len(s.Statuses) > 0 && !slices.Contains(s.Statuses, rec.StatusCode) {
			return false, ""
		}
		h := http.Header(rec.Headers)
		server := strings.ToLower(h.Get("Server"))
		for _, hint := range s.ServerHints {
			if strings.Contains(server, hint) {
				return true, s.Source
			}
		}
		for _, name := range s.Headers {
			if h.Get(name) != "" {
				return true, s.Source
			}
		}
		for _, m := range s.BodyMarkers {
			if bytes.Contains(rec.Body, []byte(m)) {
				return true, s.Source
			}
		}
		for _, m := range s.URLMarkers {
			if strings.Contains(rec.URL, m) {
				return true, s.Source
			}
		}
		return false, ""
	}
}

var (
	Cloudflare = Signature{
		Source:      "Cloudflare",
		Statuses:    []int{http.StatusForbidden, http.StatusServiceUnavailable},
		ServerHints: []string{"cloudflare"},
		BodyMarkers: []string{"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"},
	}
	Akamai = Signature{
		Source:      "Akamai",
		Statuses:    []int{http.StatusForbidden},
		ServerHints: []string{"akamai"},
	}
	DataDome = Signature{
		Source:      "DataDome",
		Statuses:    []int{http.StatusForbidden},
		ServerHints: []string{"datadome"},
		Headers:     []string{"X-DataDome", "X-DataDome-Response"},
		BodyMarkers: []string{"geo.captcha-delivery.com", "datadome"},
	}
	PerimeterX = Signature{
		Source:      "PerimeterX",
		Statuses:    []int{http.StatusForbidden},
		Headers:     []string{"X-Px-Captcha"},
		BodyMarkers: []string{"client.perimeterx.net", "px-captcha", "_pxBlock"},
	}
	// Google serves its "unusual traffic" interstitial with a 429, or with a
	// 200 after redirecting to /sorry/.
	Google = Signature{
		Source:      "Google",
		BodyMarkers: []string{"Our systems have detected unusual traffic", "/recaptcha/api.js", "id=\"captcha-form\""},
		URLMarkers:  []string{"google.com/sorry/"},
	}
)

// detectAkamaiReference catches Akamai's generic "Reference #" block page,
// which needs two markers together.
func detectAkamaiReference(rec *storage.FetchRecord) (bool, string) {
	if rec.StatusCode == http.StatusForbidden &&
		bytes.Contains(rec.Body, []byte("Reference #")) &&
		bytes.Contains(rec.Body, []byte("Access Denied")) {
		return true, Akamai.Source
	}
	return false, ""
}

// DefaultDetectors returns the detectors run on every fetch.
func DefaultDetectors() []Detector {
	return []Detector{
		Cloudflare.Detector(),
		Akamai.Detector(),
		detectAkamaiReference,
		DataDome.Detector(),
		PerimeterX.Detector(),
		Google.Detector(),
	}
}

// Analyze runs rec through detectors in order and stamps the first match onto
// it. It clears any previous detection when nothing matches.
func Analyze(rec *storage.FetchRecord, detectors []Detector) bool {
	if rec == nil {
		return false
	}
	for _, d := range detectors {
		if ok, src := d(rec); ok {
			rec.DetectedBot = true
			rec.DetectionSrc = src
			return true
		}
	}
	rec.DetectedBot = false
	rec.DetectionSrc = ""
	return false
}
