package projections

import (
	"context"
	"time"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// stubMembers serves a fixed member table.
type stubMembers struct {
	records []member.Record
}

func (s *stubMembers) Load(ctx context.Context) []member.Record {
	out := make([]member.Record, len(s.records))
	copy(out, s.records)
	return out
}

// stubHistory serves canned audit entries per DNI.
type stubHistory struct {
	entries map[string][]audit.Entry
	calls   []int // limits passed in
}

func (s *stubHistory) History(ctx context.Context, dni string, limit int) []audit.Entry {
	s.calls = append(s.calls, limit)
	return s.entries[dni]
}

func testNow() time.Time {
	return time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
}

func sampleRecord(name, surname, dni string) member.Record {
	return member.Record{
		Name:          name,
		Surname:       surname,
		DNI:           dni,
		Phone:         "612000111",
		Email:         name + "@example.com",
		Discipline:    "Krav Maga / BJJ",
		Plan:          "1 día/semana",
		Price:         "30€/mes",
		BirthDate:     "1990-01-01",
		JoinDate:      "15-01-2026 09:00:00",
		Status:        member.StatusActive,
		PaymentStatus: member.PaymentUnpaid,
	}
}
