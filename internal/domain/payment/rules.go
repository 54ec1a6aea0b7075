// Package payment recomputes each member's payment status from plan type
// and last-payment date. The rules are pure: they only ever force a status
// toward No pagado; marking a member as paid is always an explicit action.
package payment

import (
	"strings"
	"time"

	"gymdesk/internal/domain/member"
)

// PlanPeriods maps recurring plan names to their renewal period in months.
// Plans outside this table (single sessions, class passes) never expire
// automatically.
var PlanPeriods = map[string]int{
	"Mensual":    1,
	"Trimestral": 3,
	"Anual":      12,
}

// dateLayouts are the accepted formats for "Fecha último pago", most
// specific first. The sheet has accumulated both ISO and day-first values.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
}

// ParseDate parses a sheet date value against the accepted layouts.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// AddMonths advances a date by whole months, clamping to the last day of
// the target month (Jan 31 + 1 month = Feb 29/28, not Mar 2/3).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ApplyRules recomputes payment status for every record at the given time.
// Per record:
//  1. An empty payment status defaults to No pagado.
//  2. Unrecognized plans keep their status, except values outside
//     {Pagado, No pagado} are coerced to No pagado.
//  3. A recognized plan with a missing or unparseable last-payment date is
//     forced to No pagado.
//  4. Otherwise the status flips to No pagado once now >= lastPayment +
//     the plan period.
//
// POST: No record's status is ever set to Pagado; returns whether any
// record changed so the caller can flush corrections back
func ApplyRules(records []member.Record, now time.Time) ([]member.Record, bool) {
	changed := false
	out := make([]member.Record, len(records))
	copy(out, records)

	for i := range out {
		rec := &out[i]
		status := strings.TrimSpace(rec.PaymentStatus)
		if status == "" {
			rec.PaymentStatus = member.PaymentUnpaid
			status = member.PaymentUnpaid
			changed = true
		}

		plan := strings.TrimSpace(rec.Plan)
		months, recurring := PlanPeriods[plan]
		if !recurring {
			if status != member.PaymentPaid && status != member.PaymentUnpaid {
				rec.PaymentStatus = member.PaymentUnpaid
				changed = true
			}
			continue
		}

		paidAt, ok := ParseDate(rec.LastPaymentDate)
		if !ok {
			if status != member.PaymentUnpaid {
				rec.PaymentStatus = member.PaymentUnpaid
				changed = true
			}
			continue
		}

		nextDue := AddMonths(paidAt, months)
		if !now.Before(nextDue) && status != member.PaymentUnpaid {
			rec.PaymentStatus = member.PaymentUnpaid
			changed = true
		}
	}
	return out, changed
}
