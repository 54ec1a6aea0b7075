package orchestrators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// EditMemberInput carries the full set of editable fields. The form always
// submits every field, so values are absolute, not deltas. Discipline and
// DNI are immutable once on the sheet.
type EditMemberInput struct {
	DNI       string // lookup key
	Name      string
	Surname   string
	Phone     string
	Email     string
	Plan      string
	BirthDate string // YYYY-MM-DD
	Actor     string
}

// EditMemberDeps holds dependencies for ExecuteEditMember.
type EditMemberDeps struct {
	Syncer MemberSyncer
	Now    func() time.Time
}

// ExecuteEditMember updates a member's editable fields.
// POST: Changed fields saved and audited as "campo: old → new"; a no-op
// edit writes and logs nothing
// INVARIANT: Plan must belong to the member's discipline and age bracket
func ExecuteEditMember(ctx context.Context, input EditMemberInput, deps EditMemberDeps) (member.Record, error) {
	records := deps.Syncer.Load(ctx)
	idx, err := member.FindByDNI(records, input.DNI)
	if err != nil {
		return member.Record{}, err
	}
	rec := &records[idx]

	name := strings.TrimSpace(input.Name)
	surname := strings.TrimSpace(input.Surname)
	phone := member.NormalizePhone(input.Phone)
	mail := member.NormalizeEmail(input.Email)
	if err := member.ValidateIdentity(name, surname, rec.DNI, phone, mail); err != nil {
		return member.Record{}, err
	}

	birth, err := time.ParseInLocation("2006-01-02", input.BirthDate, madrid)
	if err != nil {
		return member.Record{}, ErrBirthDateFormat
	}
	age := member.Age(birth, nowIn(deps.Now))
	if age < member.MinAge || age > member.MaxAge {
		return member.Record{}, ErrAgeOutOfRange
	}

	child := member.IsChild(age)
	if !member.ValidPlan(rec.Discipline, input.Plan, child) {
		return member.Record{}, ErrUnknownPlan
	}
	price, _ := member.PlanPrice(rec.Discipline, input.Plan, child)

	var changes []string
	apply := func(label, from, to string, set func(string)) {
		if from == to {
			return
		}
		changes = append(changes, fmt.Sprintf("%s: %s → %s", label, from, to))
		set(to)
	}

	apply("Nombre", rec.Name, name, func(v string) { rec.Name = v })
	apply("Apellidos", rec.Surname, surname, func(v string) { rec.Surname = v })
	apply("Teléfono", rec.Phone, phone, func(v string) { rec.Phone = v })
	apply("Email", rec.Email, mail, func(v string) { rec.Email = v })
	apply("Plan contratado", rec.Plan, input.Plan, func(v string) {
		rec.Plan = v
		rec.Price = price
	})
	apply("Fecha nacimiento", rec.BirthDate, birth.Format("2006-01-02"), func(v string) { rec.BirthDate = v })

	if len(changes) == 0 {
		return *rec, nil
	}

	if err := deps.Syncer.Save(ctx, records); err != nil {
		return member.Record{}, err
	}
	deps.Syncer.LogAction(ctx, input.Actor, audit.ActionEdit, rec.DNI, strings.Join(changes, "; "))
	return *rec, nil
}
