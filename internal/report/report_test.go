package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/lumen/internal/recommend"
	"github.com/FranksOps/lumen/internal/scoring"
	"github.com/FranksOps/lumen/internal/signals"
	"github.com/FranksOps/lumen/internal/storage"
)

var stamp = time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))

func sample() *Report {
	recs := []recommend.Recommendation{
		{Type: "schema", Priority: recommend.High, Action: "Add Organization JSON-LD on homepage."},
		{Type: "reputation", Priority: recommend.Medium, Action: "UK: Run a reviews drive."},
	}
	offsite := signals.NewOffsiteSignals()
	offsite["g2"] = true
	return Assemble(Input{
		Brand:     "Acme <Corp>",
		Category:  "CRM",
		Website:   "https://acme.example",
		Score:     53,
		Breakdown: scoring.Breakdown{RecognitionPct: 50, ContextAvg: 40, SentimentPct: 50, CompetitivePct: 75},
		Markets: scoring.MarketScores{
			{Market: "USA", Score: scoring.MarketScore{RecognitionPct: 80, Mentions: 4,
				Competitors: []scoring.CompetitorCount{{Name: "Globex", Count: 2}}}},
			{Market: "UK", Score: scoring.MarketScore{RecognitionPct: 20}},
		},
		TopCompetitors:  []scoring.CompetitorCount{{Name: "Globex", Count: 2}},
		Site:            signals.SiteSignals{FAQSchema: true},
		Offsite:         offsite,
		Recommendations: recs,
		Plan:            recommend.BuildPlan(recs),
		Now:             stamp,
	})
}

func TestAssemble_Metadata(t *testing.T) {
	r := sample()
	if r.GeneratedAt != "2026-03-04T04:06:07Z" {
		t.Errorf("expected UTC timestamp, got %q", r.GeneratedAt)
	}
	if r.Version != "1.0.0" {
		t.Errorf("unexpected version %q", r.Version)
	}
	if r.SourcesNote != SourcesNote {
		t.Errorf("unexpected sources note %q", r.SourcesNote)
	}
}

func TestAssemble_EmptyCollectionsAreNotNull(t *testing.T) {
	r := Assemble(Input{
		Brand:   "Acme",
		Markets: scoring.MarketScores{{Market: "USA"}},
		Now:     stamp,
	})

	var buf bytes.Buffer
	if err := WriteJSON(&buf, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "null") {
		t.Errorf("expected no null values, got:\n%s", out)
	}
	for _, want := range []string{
		`"top_competitors": []`,
		`"recommendations": []`,
		`"High": []`,
		`"Low": []`,
		`"queries": []`,
		`"competitors": []`,
		`"crunchbase": false`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s", want)
		}
	}

	empty := Assemble(Input{Now: stamp})
	buf.Reset()
	if err := WriteJSON(&buf, empty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"scores_by_market": {}`) {
		t.Errorf("expected empty market object, got:\n%s", buf.String())
	}
}

func TestWriteJSON_KeyOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	keys := []string{
		`"brand"`, `"category"`, `"website"`, `"generated_at"`, `"score_overall"`,
		`"breakdown_overall"`, `"scores_by_market"`, `"USA"`, `"UK"`, `"top_competitors"`,
		`"site_signals"`, `"offsite_signals"`, `"recommendations"`, `"next_90_days_plan"`,
		`"sources_note"`, `"version"`,
	}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, k)
		if i < 0 {
			t.Fatalf("missing key %s", k)
		}
		if i < last {
			t.Errorf("key %s out of order", k)
		}
		last = i
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 14 {
		t.Errorf("expected 14 top-level keys, got %d", len(decoded))
	}
	pair, ok := decoded["top_competitors"].([]any)[0].([]any)
	if !ok || pair[0] != "Globex" || pair[1] != float64(2) {
		t.Errorf("expected [name, count] pair, got %v", decoded["top_competitors"])
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Overall:     53 - Needs significant work",
		"  USA: recognition 80%",
		"  Globex: 2",
		"  FAQ schema:          Yes",
		"  g2: Yes",
		"  wikipedia: No",
		"    [schema] Add Organization JSON-LD on homepage.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected text to contain %q\n%s", want, out)
		}
	}
	if strings.Index(out, "High:") > strings.Index(out, "Medium:") || strings.Index(out, "Medium:") > strings.Index(out, "Low:") {
		t.Errorf("expected plan buckets in priority order")
	}
	if strings.Contains(out, "Fetches:") {
		t.Errorf("expected no fetch line without a summary")
	}
}

func TestWriteText_Fetches(t *testing.T) {
	r := sample()
	r.Fetches = &FetchSummary{TotalRequests: 9, TotalErrors: 1, TotalDetections: 2, TotalCached: 3}

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "9 requests, 1 errors, 2 challenged, 3 from cache") {
		t.Errorf("expected fetch summary line, got:\n%s", buf.String())
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Acme &lt;Corp&gt; Visibility Audit</title>") {
		t.Errorf("expected escaped HTML title")
	}
	if !strings.Contains(out, "Needs significant work") {
		t.Errorf("expected score band")
	}
	if !strings.Contains(out, "<li>Globex · 2</li>") {
		t.Errorf("expected competitor list")
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Strong"},
		{80, "Strong"},
		{79.9, "Solid foundation"},
		{60, "Solid foundation"},
		{59.9, "Needs significant work"},
		{0, "Needs significant work"},
	}
	for _, tt := range tests {
		if got := Band(tt.score); got != tt.want {
			t.Errorf("Band(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sample()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "generated_at: \"2026-03-04T04:06:07Z\"") && !strings.Contains(out, "generated_at: 2026-03-04T04:06:07Z") {
		t.Errorf("expected generated_at, got:\n%s", out)
	}
	if strings.Index(out, "  USA:") > strings.Index(out, "  UK:") {
		t.Errorf("expected markets in config order")
	}
	if !strings.Contains(out, "- - Globex\n") {
		t.Errorf("expected competitor pairs as sequences, got:\n%s", out)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"json", " HTML ", "", "html", "yaml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Format{JSON, HTML, YAML}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}

	if _, err := ParseFormats([]string{"pdf"}); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")

	written, err := WriteFiles(path, sample(), JSON, Text, HTML, YAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		path,
		filepath.Join(dir, "nested", "report.txt"),
		filepath.Join(dir, "nested", "report.html"),
		filepath.Join(dir, "nested", "report.yaml"),
	}
	if strings.Join(written, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, written)
	}
	for _, p := range want {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("expected non-empty file %s: %v", p, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var back Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	if back.ScoresByMarket[0].Market != "USA" || back.ScoreOverall != 53 {
		t.Errorf("unexpected round trip: %+v", back)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()

	records := []*storage.FetchRecord{
		{
			StatusCode: 200,
			Body:       []byte("123"),
			CreatedAt:  now,
			FromCache:  true,
		},
		{
			StatusCode:   403,
			Body:         []byte("1234"),
			CreatedAt:    now.Add(1 * time.Second),
			DetectedBot:  true,
			DetectionSrc: "Cloudflare",
		},
		{
			StatusCode: 0,
			Body:       []byte(""),
			CreatedAt:  now.Add(2 * time.Second),
			Error:      "timeout",
		},
	}

	summary := Summarize(records)

	if summary.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", summary.TotalRequests)
	}
	if summary.TotalErrors != 1 {
		t.Errorf("expected 1 error, got %d", summary.TotalErrors)
	}
	if summary.TotalDetections != 1 {
		t.Errorf("expected 1 detection, got %d", summary.TotalDetections)
	}
	if summary.TotalCached != 1 {
		t.Errorf("expected 1 cached, got %d", summary.TotalCached)
	}
	if summary.DetectionsBySrc["Cloudflare"] != 1 {
		t.Errorf("expected 1 CF detection, got %d", summary.DetectionsBySrc["Cloudflare"])
	}
	if summary.StatusCodes[200] != 1 || summary.StatusCodes[403] != 1 {
		t.Errorf("unexpected status codes %v", summary.StatusCodes)
	}
	if summary.TotalBytes != 7 {
		t.Errorf("expected 7 total bytes, got %d", summary.TotalBytes)
	}
	if summary.Duration != 2*time.Second {
		t.Errorf("expected 2s duration, got %v", summary.Duration)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalRequests != 0 || s.StatusCodes == nil {
		t.Errorf("expected zero summary with initialized maps, got %+v", s)
	}
}
