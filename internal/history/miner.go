// Package history mines per-alert statistics from stored investigations:
// how often an alert fires, how it usually classifies, and whether it has a
// habit of being noise. The output feeds the stats endpoint and, offline,
// scoring profile calibration.
package history

import (
	"sort"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
)

// AlertStats aggregates the stored history of one alert name.
type AlertStats struct {
	AlertName       string         `json:"alertName"`
	Total           int            `json:"total"`
	Classifications map[string]int `json:"classifications"`
	NoiseShare      float64        `json:"noiseShare"`
	AvgImpact       int            `json:"avgImpact"`
	AvgConfidence   int            `json:"avgConfidence"`
	Family          string         `json:"family"`
	LastSeen        time.Time      `json:"lastSeen"`
}

type aggregate struct {
	stats      AlertStats
	impactSum  int
	confSum    int
	noisyCount int
}

// Mine aggregates records into per-alert stats, ordered by frequency then
// name so the output is deterministic.
func Mine(records []*store.Record) []AlertStats {
	if len(records) == 0 {
		return nil
	}

	byName := make(map[string]*aggregate)
	for _, rec := range records {
		agg, ok := byName[rec.AlertName]
		if !ok {
			agg = &aggregate{stats: AlertStats{
				AlertName:       rec.AlertName,
				Classifications: make(map[string]int),
				Family:          string(rec.Family),
			}}
			byName[rec.AlertName] = agg
		}
		agg.stats.Total++
		agg.stats.Classifications[string(rec.Classification)]++
		agg.impactSum += rec.Impact
		agg.confSum += rec.Confidence
		if rec.Classification == models.ClassNoisy {
			agg.noisyCount++
		}
		if rec.CreatedAt.After(agg.stats.LastSeen) {
			agg.stats.LastSeen = rec.CreatedAt
		}
	}

	out := make([]AlertStats, 0, len(byName))
	for _, agg := range byName {
		s := agg.stats
		s.NoiseShare = float64(agg.noisyCount) / float64(s.Total)
		s.AvgImpact = agg.impactSum / s.Total
		s.AvgConfidence = agg.confSum / s.Total
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].AlertName < out[j].AlertName
	})
	return out
}
