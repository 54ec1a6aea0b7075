package orchestrators

import (
	"context"
	"errors"
	"testing"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

func TestExecuteMemberAction_Deactivate(t *testing.T) {
	syncer := &stubSyncer{records: []member.Record{activeMember()}}
	input := MemberActionInput{DNI: "12345678Z", Action: member.ActionDeactivate, Actor: "ana"}

	rec, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != member.StatusInactive {
		t.Errorf("expected Baja, got %q", rec.Status)
	}
	if syncer.records[0].Status != member.StatusInactive {
		t.Errorf("saved sheet not updated")
	}

	log := syncer.logs[0]
	if log.Action != audit.ActionDeregister {
		t.Errorf("expected action baja, got %q", log.Action)
	}
	if log.Detail != "Estado cambiado a Baja (baja manual)" {
		t.Errorf("unexpected detail %q", log.Detail)
	}
}

func TestExecuteMemberAction_Reactivate(t *testing.T) {
	m := activeMember()
	m.Status = member.StatusInactive
	syncer := &stubSyncer{records: []member.Record{m}}
	input := MemberActionInput{DNI: "12345678Z", Action: member.ActionReactivate, Actor: "ana"}

	rec, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != member.StatusActive {
		t.Errorf("expected Activo, got %q", rec.Status)
	}

	log := syncer.logs[0]
	if log.Action != audit.ActionRegister {
		t.Errorf("reactivation must log as alta, got %q", log.Action)
	}
	if log.Detail != "Estado cambiado a Activo (reactivado)" {
		t.Errorf("unexpected detail %q", log.Detail)
	}
}

func TestExecuteMemberAction_MarkPaid(t *testing.T) {
	syncer := &stubSyncer{records: []member.Record{activeMember()}}
	input := MemberActionInput{DNI: "12345678Z", Action: member.ActionMarkPaid, Actor: "ana"}

	rec, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.PaymentStatus != member.PaymentPaid {
		t.Errorf("expected Pagado, got %q", rec.PaymentStatus)
	}
	if rec.LastPaymentDate != "2026-08-28 10:30:00" {
		t.Errorf("unexpected payment date %q", rec.LastPaymentDate)
	}
	if syncer.logs[0].Detail != "Estado cambiado de No pagado → Pagado" {
		t.Errorf("unexpected detail %q", syncer.logs[0].Detail)
	}
}

func TestExecuteMemberAction_MarkUnpaid(t *testing.T) {
	m := activeMember()
	m.PaymentStatus = member.PaymentPaid
	m.LastPaymentDate = "2026-08-01 09:00:00"
	syncer := &stubSyncer{records: []member.Record{m}}
	input := MemberActionInput{DNI: "12345678Z", Action: member.ActionMarkUnpaid, Actor: "ana"}

	rec, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.PaymentStatus != member.PaymentUnpaid {
		t.Errorf("expected No pagado, got %q", rec.PaymentStatus)
	}
	if syncer.logs[0].Action != audit.ActionUnpaid {
		t.Errorf("expected action no pagado, got %q", syncer.logs[0].Action)
	}
	if syncer.logs[0].Detail != "Estado cambiado de Pagado → No pagado" {
		t.Errorf("unexpected detail %q", syncer.logs[0].Detail)
	}
}

func TestExecuteMemberAction_IllegalTransition(t *testing.T) {
	m := activeMember()
	m.Status = member.StatusInactive
	syncer := &stubSyncer{records: []member.Record{m}}
	input := MemberActionInput{DNI: "12345678Z", Action: member.ActionMarkPaid, Actor: "ana"}

	_, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer, Now: fixedNow})
	if !errors.Is(err, member.ErrInactive) {
		t.Errorf("expected ErrInactive, got %v", err)
	}
	if syncer.saves != 0 || len(syncer.logs) != 0 {
		t.Errorf("rejected transition must not write or log")
	}
}

func TestExecuteMemberAction_UnknownMember(t *testing.T) {
	syncer := &stubSyncer{}
	input := MemberActionInput{DNI: "00000000A", Action: member.ActionDeactivate}

	_, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer})
	if !errors.Is(err, member.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteMemberAction_UnknownAction(t *testing.T) {
	syncer := &stubSyncer{records: []member.Record{activeMember()}}
	input := MemberActionInput{DNI: "12345678Z", Action: "explode"}

	_, err := ExecuteMemberAction(context.Background(), input, MemberActionDeps{Syncer: syncer})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}
