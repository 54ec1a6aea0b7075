package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/payment"
)

// Bucket is one labelled count in a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GetStatsResult is the dashboard projection over the member table.
type GetStatsResult struct {
	TotalMembers    int      `json:"total_members"`
	ActiveMembers   int      `json:"active_members"`
	InactiveMembers int      `json:"inactive_members"`
	NewLast30Days   int      `json:"new_last_30_days"`
	PaidMembers     int      `json:"paid_members"`
	UnpaidMembers   int      `json:"unpaid_members"`
	ByPlan          []Bucket `json:"by_plan"`
	ByDiscipline    []Bucket `json:"by_discipline"`
	AgeHistogram    []Bucket `json:"age_histogram"`        // 5-year buckets
	MonthlyIntakes  []Bucket `json:"monthly_registrations"` // YYYY-MM, ascending
}

// GetStatsDeps holds dependencies for QueryGetStats.
type GetStatsDeps struct {
	Members MemberSource
	Now     func() time.Time
}

// QueryGetStats computes the dashboard distributions in one pass.
// POST: Distribution buckets are sorted by descending count, the age
// histogram and monthly series by their natural order
func QueryGetStats(ctx context.Context, deps GetStatsDeps) GetStatsResult {
	records := deps.Members.Load(ctx)
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	result := GetStatsResult{TotalMembers: len(records)}
	cutoff := now.Add(-30 * 24 * time.Hour)

	planCounts := map[string]int{}
	disciplineCounts := map[string]int{}
	ageCounts := map[int]int{} // keyed by bucket start (0, 5, 10, ...)
	monthCounts := map[string]int{}
	maxBucket := 0

	for i := range records {
		r := &records[i]
		if r.IsActive() {
			result.ActiveMembers++
		} else {
			result.InactiveMembers++
		}
		if r.IsPaid() {
			result.PaidMembers++
		} else {
			result.UnpaidMembers++
		}
		if plan := strings.TrimSpace(r.Plan); plan != "" {
			planCounts[plan]++
		}
		if d := strings.TrimSpace(r.Discipline); d != "" {
			disciplineCounts[d]++
		}
		if join, ok := payment.ParseDate(r.JoinDate); ok {
			if join.After(cutoff) {
				result.NewLast30Days++
			}
			monthCounts[join.Format("2006-01")]++
		}
		if birth, err := time.Parse("2006-01-02", r.BirthDate); err == nil {
			if age := member.Age(birth, now); age >= 0 {
				bucket := (age / 5) * 5
				ageCounts[bucket]++
				if bucket > maxBucket {
					maxBucket = bucket
				}
			}
		}
	}

	result.ByPlan = sortedBuckets(planCounts)
	result.ByDiscipline = sortedBuckets(disciplineCounts)

	if len(ageCounts) > 0 {
		for b := 0; b <= maxBucket; b += 5 {
			result.AgeHistogram = append(result.AgeHistogram, Bucket{
				Label: fmt.Sprintf("%d-%d", b, b+4),
				Count: ageCounts[b],
			})
		}
	}

	months := make([]string, 0, len(monthCounts))
	for m := range monthCounts {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		result.MonthlyIntakes = append(result.MonthlyIntakes, Bucket{Label: m, Count: monthCounts[m]})
	}
	return result
}

// sortedBuckets orders a distribution by descending count, ties by label.
func sortedBuckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		out = append(out, Bucket{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
