package orchestrators

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// ErrUnknownAction is returned for action names outside the state machine.
var ErrUnknownAction = errors.New("unknown member action")

// MemberActionInput names the member and the transition to apply.
type MemberActionInput struct {
	DNI    string
	Action string // member.ActionDeactivate etc.
	Actor  string
}

// MemberActionDeps holds dependencies for ExecuteMemberAction.
type MemberActionDeps struct {
	Syncer MemberSyncer
	Now    func() time.Time
}

// ExecuteMemberAction applies one status transition to a member and logs it.
// PRE: Action is one of the member action constants
// POST: Sheet saved with the updated record; transition audited
// INVARIANT: Illegal transitions are rejected before any write
func ExecuteMemberAction(ctx context.Context, input MemberActionInput, deps MemberActionDeps) (member.Record, error) {
	records := deps.Syncer.Load(ctx)
	idx, err := member.FindByDNI(records, input.DNI)
	if err != nil {
		return member.Record{}, err
	}
	rec := &records[idx]

	var action, detail string
	switch input.Action {
	case member.ActionDeactivate:
		if err := rec.Deactivate(); err != nil {
			return member.Record{}, err
		}
		action = audit.ActionDeregister
		detail = "Estado cambiado a Baja (baja manual)"
	case member.ActionReactivate:
		if err := rec.Reactivate(); err != nil {
			return member.Record{}, err
		}
		action = audit.ActionRegister
		detail = "Estado cambiado a Activo (reactivado)"
	case member.ActionMarkPaid:
		paidAt := nowIn(deps.Now).Format("2006-01-02 15:04:05")
		if err := rec.MarkPaid(paidAt); err != nil {
			return member.Record{}, err
		}
		action = audit.ActionPaid
		detail = "Estado cambiado de No pagado → Pagado"
	case member.ActionMarkUnpaid:
		if err := rec.MarkUnpaid(); err != nil {
			return member.Record{}, err
		}
		action = audit.ActionUnpaid
		detail = "Estado cambiado de Pagado → No pagado"
	default:
		return member.Record{}, ErrUnknownAction
	}

	if err := deps.Syncer.Save(ctx, records); err != nil {
		return member.Record{}, err
	}
	deps.Syncer.LogAction(ctx, input.Actor, action, rec.DNI, detail)
	return *rec, nil
}
