package report

import (
	"time"

	"github.com/FranksOps/lumen/internal/storage"
)

// FetchSummary contains aggregated metrics about the fetches of a run or of
// a cache.
type FetchSummary struct {
	TotalRequests   int
	TotalErrors     int
	TotalDetections int
	TotalCached     int
	StatusCodes     map[int]int
	DetectionsBySrc map[string]int
	TotalBytes      int64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// Summarize processes fetch records into summary metrics.
func Summarize(records []*storage.FetchRecord) FetchSummary {
	s := FetchSummary{
		StatusCodes:     make(map[int]int),
		DetectionsBySrc: make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	s.StartTime = records[0].CreatedAt
	s.EndTime = records[0].CreatedAt

	for _, r := range records {
		s.TotalRequests++
		if r.Error != "" {
			s.TotalErrors++
		}
		if r.DetectedBot {
			s.TotalDetections++
			s.DetectionsBySrc[r.DetectionSrc]++
		}
		if r.FromCache {
			s.TotalCached++
		}
		if r.StatusCode > 0 {
			s.StatusCodes[r.StatusCode]++
		}
		s.TotalBytes += int64(len(r.Body))

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}
