package payment

import (
	"testing"
	"time"

	"gymdesk/internal/domain/member"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestApplyRules_ExpiryScenario tests the canonical expiry case: Mensual
// plan paid 2024-01-01 and evaluated at 2024-03-01 must be unpaid.
func TestApplyRules_ExpiryScenario(t *testing.T) {
	records := []member.Record{{
		Plan:            "Mensual",
		PaymentStatus:   member.PaymentPaid,
		LastPaymentDate: "2024-01-01",
	}}
	out, changed := ApplyRules(records, at(2024, 3, 1))
	if !changed {
		t.Error("expected changed=true")
	}
	if out[0].PaymentStatus != member.PaymentUnpaid {
		t.Errorf("expected No pagado, got %s", out[0].PaymentStatus)
	}
}

// TestApplyRules_NotYetDue tests that a payment inside its period is kept.
func TestApplyRules_NotYetDue(t *testing.T) {
	records := []member.Record{{
		Plan:            "Trimestral",
		PaymentStatus:   member.PaymentPaid,
		LastPaymentDate: "2024-01-15",
	}}
	out, changed := ApplyRules(records, at(2024, 3, 1))
	if changed {
		t.Error("expected changed=false")
	}
	if out[0].PaymentStatus != member.PaymentPaid {
		t.Errorf("expected Pagado, got %s", out[0].PaymentStatus)
	}
}

// TestApplyRules_EmptyStatusDefaultsUnpaid tests rule 1.
func TestApplyRules_EmptyStatusDefaultsUnpaid(t *testing.T) {
	records := []member.Record{{Plan: "Bono 10 clases"}}
	out, changed := ApplyRules(records, at(2024, 3, 1))
	if !changed {
		t.Error("expected changed=true for defaulted status")
	}
	if out[0].PaymentStatus != member.PaymentUnpaid {
		t.Errorf("expected No pagado, got %s", out[0].PaymentStatus)
	}
}

// TestApplyRules_UnknownPlanKeepsStatus tests rule 2 for valid values.
func TestApplyRules_UnknownPlanKeepsStatus(t *testing.T) {
	records := []member.Record{{
		Plan:            "Sesión suelta 1h",
		PaymentStatus:   member.PaymentPaid,
		LastPaymentDate: "2020-01-01", // ancient, but plan has no period
	}}
	out, changed := ApplyRules(records, at(2024, 3, 1))
	if changed {
		t.Error("expected changed=false")
	}
	if out[0].PaymentStatus != member.PaymentPaid {
		t.Errorf("expected Pagado kept, got %s", out[0].PaymentStatus)
	}
}

// TestApplyRules_UnknownPlanCoercesBadValue tests rule 2 for junk values.
func TestApplyRules_UnknownPlanCoercesBadValue(t *testing.T) {
	records := []member.Record{{
		Plan:          "Sesión suelta 1h",
		PaymentStatus: "PENDIENTE",
	}}
	out, changed := ApplyRules(records, at(2024, 3, 1))
	if !changed {
		t.Error("expected changed=true")
	}
	if out[0].PaymentStatus != member.PaymentUnpaid {
		t.Errorf("expected No pagado, got %s", out[0].PaymentStatus)
	}
}

// TestApplyRules_RecurringPlanUnparseableDate tests rule 3.
func TestApplyRules_RecurringPlanUnparseableDate(t *testing.T) {
	cases := []string{"", "próximamente", "31/31/2024"}
	for _, date := range cases {
		records := []member.Record{{
			Plan:            "Mensual",
			PaymentStatus:   member.PaymentPaid,
			LastPaymentDate: date,
		}}
		out, _ := ApplyRules(records, at(2024, 3, 1))
		if out[0].PaymentStatus != member.PaymentUnpaid {
			t.Errorf("date %q: expected No pagado, got %s", date, out[0].PaymentStatus)
		}
	}
}

// TestApplyRules_NeverPromotesToPaid tests that the engine only ever moves
// status toward No pagado.
func TestApplyRules_NeverPromotesToPaid(t *testing.T) {
	records := []member.Record{
		{Plan: "Mensual", PaymentStatus: member.PaymentUnpaid, LastPaymentDate: "2024-02-28"},
		{Plan: "Anual", PaymentStatus: ""},
		{Plan: "desconocido", PaymentStatus: member.PaymentUnpaid},
	}
	out, _ := ApplyRules(records, at(2024, 3, 1))
	for i, rec := range out {
		if rec.PaymentStatus == member.PaymentPaid {
			t.Errorf("record %d was promoted to Pagado", i)
		}
	}
}

// TestApplyRules_MonotoneTowardUnpaid tests that an expired recurring plan
// is never left as Pagado, across layouts.
func TestApplyRules_MonotoneTowardUnpaid(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-01 10:30:00", "01-01-2024", "01-01-2024 10:30:00"}
	for _, date := range dates {
		records := []member.Record{{
			Plan:            "Mensual",
			PaymentStatus:   member.PaymentPaid,
			LastPaymentDate: date,
		}}
		out, _ := ApplyRules(records, at(2024, 6, 1))
		if out[0].PaymentStatus != member.PaymentUnpaid {
			t.Errorf("date %q: expired record left as Pagado", date)
		}
	}
}

// TestApplyRules_DoesNotMutateInput tests purity.
func TestApplyRules_DoesNotMutateInput(t *testing.T) {
	records := []member.Record{{
		Plan:            "Mensual",
		PaymentStatus:   member.PaymentPaid,
		LastPaymentDate: "2024-01-01",
	}}
	ApplyRules(records, at(2024, 3, 1))
	if records[0].PaymentStatus != member.PaymentPaid {
		t.Error("input slice was mutated")
	}
}

// TestAddMonths_EndOfMonthClamp tests month arithmetic clamping.
func TestAddMonths_EndOfMonthClamp(t *testing.T) {
	cases := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{at(2024, 1, 31), 1, at(2024, 2, 29)}, // leap year
		{at(2023, 1, 31), 1, at(2023, 2, 28)},
		{at(2024, 1, 15), 3, at(2024, 4, 15)},
		{at(2024, 11, 30), 3, at(2025, 2, 28)},
	}
	for _, c := range cases {
		if got := AddMonths(c.in, c.months); !got.Equal(c.want) {
			t.Errorf("AddMonths(%v, %d) = %v, want %v", c.in, c.months, got, c.want)
		}
	}
}
