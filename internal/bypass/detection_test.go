package bypass

import (
	"testing"

	"github.com/FranksOps/lumen/internal/storage"
)

func TestDefaultDetectors(t *testing.T) {
	tests := []struct {
		name   string
		rec    storage.FetchRecord
		source string
	}{
		{
			name: "plain page",
			rec:  storage.FetchRecord{StatusCode: 200, Headers: map[string][]string{"Server": {"nginx"}}, Body: []byte("OK")},
		},
		{
			name:   "cloudflare server header",
			rec:    storage.FetchRecord{StatusCode: 403, Headers: map[string][]string{"Server": {"cloudflare"}}},
			source: "Cloudflare",
		},
		{
			name:   "cloudflare turnstile body",
			rec:    storage.FetchRecord{StatusCode: 503, Body: []byte("<html>... cf-turnstile ...</html>")},
			source: "Cloudflare",
		},
		{
			name: "cloudflare server on 200 is not a block",
			rec:  storage.FetchRecord{StatusCode: 200, Headers: map[string][]string{"Server": {"cloudflare"}}},
		},
		{
			name:   "akamai ghost",
			rec:    storage.FetchRecord{StatusCode: 403, Headers: map[string][]string{"Server": {"AkamaiGHost"}}},
			source: "Akamai",
		},
		{
			name:   "akamai reference page",
			rec:    storage.FetchRecord{StatusCode: 403, Body: []byte("Access Denied ... Reference #18.abc")},
			source: "Akamai",
		},
		{
			name:   "datadome header lowercase key",
			rec:    storage.FetchRecord{StatusCode: 403, Headers: map[string][]string{"x-datadome": {"protected"}}},
			source: "DataDome",
		},
		{
			name:   "perimeterx body",
			rec:    storage.FetchRecord{StatusCode: 403, Body: []byte(`<div id="px-captcha"></div>`)},
			source: "PerimeterX",
		},
		{
			name:   "google unusual traffic",
			rec:    storage.FetchRecord{StatusCode: 429, Body: []byte("Our systems have detected unusual traffic from your computer network.")},
			source: "Google",
		},
		{
			name:   "google sorry redirect",
			rec:    storage.FetchRecord{StatusCode: 200, URL: "https://www.google.com/sorry/index?continue=x"},
			source: "Google",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			detected := Analyze(&rec, DefaultDetectors())
			if detected != (tt.source != "") {
				t.Fatalf("detected = %v, want %v", detected, tt.source != "")
			}
			if rec.DetectionSrc != tt.source {
				t.Errorf("source = %q, want %q", rec.DetectionSrc, tt.source)
			}
		})
	}
}

func TestAnalyze_ClearsStaleDetection(t *testing.T) {
	rec := &storage.FetchRecord{StatusCode: 200, DetectedBot: true, DetectionSrc: "Cloudflare"}
	if Analyze(rec, DefaultDetectors()) {
		t.Fatal("expected no detection")
	}
	if rec.DetectedBot || rec.DetectionSrc != "" {
		t.Errorf("stale detection not cleared: %+v", rec)
	}
	if Analyze(nil, DefaultDetectors()) {
		t.Error("nil record must not be detected")
	}
}
