package usecase

import (
	"sort"

	"GrowthRanker/internal/domain"
)

// TopRankings drops failed records and stable-sorts the rest by final score,
// descending. Ties keep input order. limit <= 0 keeps every record.
func TopRankings(results []domain.Record, limit int) []domain.Record {
	ranked := make([]domain.Record, 0, len(results))
	for _, rec := range results {
		if !rec.Failed() {
			ranked = append(ranked, rec)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SectorAnalysis groups ranked records by sector. Failed records are ignored,
// so they never reach a count or an average.
func SectorAnalysis(ranked []domain.Record) map[string]domain.SectorStats {
	stats := map[string]domain.SectorStats{}
	totals := map[string]float64{}

	for _, rec := range ranked {
		if rec.Failed() {
			continue
		}
		key := rec.SectorKey()
		score := rec.Score()

		s, ok := stats[key]
		if !ok {
			s = domain.SectorStats{Sector: key, TopScore: score}
		}
		s.Count++
		s.Companies = append(s.Companies, rec.CompanyName)
		if score > s.TopScore {
			s.TopScore = score
		}
		totals[key] += score
		stats[key] = s
	}

	for key, s := range stats {
		s.AvgScore = totals[key] / float64(s.Count)
		stats[key] = s
	}
	return stats
}

// SectorOrder lists sectors in order of their first appearance in ranked.
func SectorOrder(ranked []domain.Record) []string {
	seen := map[string]bool{}
	var order []string
	for _, rec := range ranked {
		if rec.Failed() {
			continue
		}
		key := rec.SectorKey()
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	return order
}

// Failures returns failed records in input order.
func Failures(results []domain.Record) []domain.Record {
	var failed []domain.Record
	for _, rec := range results {
		if rec.Failed() {
			failed = append(failed, rec)
		}
	}
	return failed
}
