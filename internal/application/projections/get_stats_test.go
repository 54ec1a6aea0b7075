package projections

import (
	"context"
	"testing"

	"gymdesk/internal/domain/member"
)

func statsFixture() *stubMembers {
	a := sampleRecord("Laura", "García", "11111111A") // active, unpaid, joined 15-01-2026
	a.BirthDate = "1990-01-01"                        // 36 at the fixed clock

	b := sampleRecord("Marco", "Ruiz", "22222222B")
	b.PaymentStatus = member.PaymentPaid
	b.JoinDate = "20-08-2026 10:00:00" // inside the 30-day window
	b.Plan = "2 días/semana"
	b.BirthDate = "2000-06-15" // 26

	c := sampleRecord("Ana", "Álvarez", "33333333C")
	c.Status = member.StatusInactive
	c.Discipline = "Boxeo / Defensa Personal"
	c.JoinDate = "03-08-2026 18:00:00" // inside the window too
	c.BirthDate = "1992-02-02"         // 34

	return &stubMembers{records: []member.Record{a, b, c}}
}

func TestQueryGetStats_Totals(t *testing.T) {
	stats := QueryGetStats(context.Background(), GetStatsDeps{Members: statsFixture(), Now: testNow})

	if stats.TotalMembers != 3 {
		t.Errorf("expected 3 members, got %d", stats.TotalMembers)
	}
	if stats.ActiveMembers != 2 || stats.InactiveMembers != 1 {
		t.Errorf("expected 2 active / 1 inactive, got %d / %d", stats.ActiveMembers, stats.InactiveMembers)
	}
	if stats.PaidMembers != 1 || stats.UnpaidMembers != 2 {
		t.Errorf("expected 1 paid / 2 unpaid, got %d / %d", stats.PaidMembers, stats.UnpaidMembers)
	}
	if stats.NewLast30Days != 2 {
		t.Errorf("expected 2 registrations in the window, got %d", stats.NewLast30Days)
	}
}

func TestQueryGetStats_Distributions(t *testing.T) {
	stats := QueryGetStats(context.Background(), GetStatsDeps{Members: statsFixture(), Now: testNow})

	if len(stats.ByPlan) != 2 {
		t.Fatalf("expected 2 plan buckets, got %v", stats.ByPlan)
	}
	if stats.ByPlan[0].Label != "1 día/semana" || stats.ByPlan[0].Count != 2 {
		t.Errorf("unexpected top plan bucket %+v", stats.ByPlan[0])
	}

	if len(stats.ByDiscipline) != 2 {
		t.Fatalf("expected 2 discipline buckets, got %v", stats.ByDiscipline)
	}
	if stats.ByDiscipline[0].Label != "Krav Maga / BJJ" || stats.ByDiscipline[0].Count != 2 {
		t.Errorf("unexpected top discipline bucket %+v", stats.ByDiscipline[0])
	}
}

func TestQueryGetStats_AgeHistogram(t *testing.T) {
	stats := QueryGetStats(context.Background(), GetStatsDeps{Members: statsFixture(), Now: testNow})

	// Ages 36, 26, 34: buckets 25-29 (1) and 35-39 (1) and 30-34 (1),
	// with all lower buckets present at zero.
	if len(stats.AgeHistogram) != 8 {
		t.Fatalf("expected buckets 0-4 through 35-39, got %v", stats.AgeHistogram)
	}
	byLabel := map[string]int{}
	for _, b := range stats.AgeHistogram {
		byLabel[b.Label] = b.Count
	}
	if byLabel["25-29"] != 1 || byLabel["30-34"] != 1 || byLabel["35-39"] != 1 {
		t.Errorf("unexpected histogram %v", stats.AgeHistogram)
	}
	if byLabel["0-4"] != 0 {
		t.Errorf("expected empty low bucket, got %v", stats.AgeHistogram)
	}
}

func TestQueryGetStats_MonthlyIntakes(t *testing.T) {
	stats := QueryGetStats(context.Background(), GetStatsDeps{Members: statsFixture(), Now: testNow})

	if len(stats.MonthlyIntakes) != 2 {
		t.Fatalf("expected 2 months, got %v", stats.MonthlyIntakes)
	}
	if stats.MonthlyIntakes[0].Label != "2026-01" || stats.MonthlyIntakes[0].Count != 1 {
		t.Errorf("unexpected first month %+v", stats.MonthlyIntakes[0])
	}
	if stats.MonthlyIntakes[1].Label != "2026-08" || stats.MonthlyIntakes[1].Count != 2 {
		t.Errorf("unexpected second month %+v", stats.MonthlyIntakes[1])
	}
}

func TestQueryGetStats_EmptyTable(t *testing.T) {
	stats := QueryGetStats(context.Background(), GetStatsDeps{Members: &stubMembers{}, Now: testNow})

	if stats.TotalMembers != 0 || len(stats.ByPlan) != 0 || len(stats.AgeHistogram) != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}
