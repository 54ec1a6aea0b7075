package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymdesk/internal/adapters/email"
	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// Intake validation errors.
var (
	ErrBirthDateFormat   = errors.New("birth date must be in YYYY-MM-DD format")
	ErrAgeOutOfRange     = fmt.Errorf("age must be between %d and %d years", member.MinAge, member.MaxAge)
	ErrUnknownDiscipline = errors.New("unknown discipline")
	ErrUnknownPlan       = errors.New("plan is not in the catalog for this discipline")
)

// RegisterMemberInput carries input for the intake orchestrator.
type RegisterMemberInput struct {
	Name       string
	Surname    string
	DNI        string
	Phone      string
	Email      string
	Discipline string
	Plan       string
	BirthDate  string // YYYY-MM-DD
	Bank       string
	Holder     string
	IBAN       string
	Locality   string
	Actor      string
}

// RegisterMemberDeps holds dependencies for ExecuteRegisterMember.
type RegisterMemberDeps struct {
	Syncer MemberSyncer
	Email  email.Sender // optional; welcome mail is best-effort
	From   string
	Now    func() time.Time
}

// ExecuteRegisterMember signs up a new member.
// PRE: Input fields are raw form values; normalization happens here
// POST: Record appended with Status=Activo, payment pending; intake logged
// INVARIANT: DNI is unique across the sheet
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (member.Record, error) {
	name := strings.TrimSpace(input.Name)
	surname := strings.TrimSpace(input.Surname)
	dni := member.NormalizeDNI(input.DNI)
	phone := member.NormalizePhone(input.Phone)
	mail := member.NormalizeEmail(input.Email)

	if err := member.ValidateIdentity(name, surname, dni, phone, mail); err != nil {
		return member.Record{}, err
	}

	birth, err := time.ParseInLocation("2006-01-02", input.BirthDate, madrid)
	if err != nil {
		return member.Record{}, ErrBirthDateFormat
	}
	now := nowIn(deps.Now)
	age := member.Age(birth, now)
	if age < member.MinAge || age > member.MaxAge {
		return member.Record{}, ErrAgeOutOfRange
	}

	child := member.IsChild(age)
	discipline := input.Discipline
	if child {
		discipline = member.DisciplineChildren
	} else if len(member.AdultPlans[discipline]) == 0 {
		return member.Record{}, ErrUnknownDiscipline
	}
	if !member.ValidPlan(discipline, input.Plan, child) {
		return member.Record{}, ErrUnknownPlan
	}
	price, _ := member.PlanPrice(discipline, input.Plan, child)

	if err := member.ValidateBanking(input.Bank, input.Holder, member.NormalizeIBAN(input.IBAN), member.NormalizeLocality(input.Locality)); err != nil {
		return member.Record{}, err
	}

	records := deps.Syncer.Load(ctx)
	if _, err := member.FindByDNI(records, dni); err == nil {
		return member.Record{}, member.ErrDuplicateDNI
	}

	rec := member.Record{
		Name:          name,
		Surname:       surname,
		DNI:           dni,
		Phone:         phone,
		Email:         mail,
		Discipline:    discipline,
		Plan:          input.Plan,
		Price:         price,
		BirthDate:     birth.Format("2006-01-02"),
		JoinDate:      now.Format(audit.TimestampLayout),
		Bank:          input.Bank,
		Holder:        input.Holder,
		IBAN:          member.NormalizeIBAN(input.IBAN),
		Locality:      member.NormalizeLocality(input.Locality),
		Status:        member.StatusActive,
		PaymentStatus: member.PaymentUnpaid,
	}

	if err := deps.Syncer.Save(ctx, append(records, rec)); err != nil {
		return member.Record{}, err
	}

	detail := fmt.Sprintf("Disciplina: %s, Plan: %s (%s), Fecha nacimiento: %s, Email: %s, Teléfono: %s",
		rec.Discipline, rec.Plan, rec.Price, rec.BirthDate, rec.Email, rec.Phone)
	deps.Syncer.LogAction(ctx, input.Actor, audit.ActionRegister, dni, detail)

	sendWelcome(ctx, deps, rec)
	return rec, nil
}

// sendWelcome mails the new member. Failures are logged, never surfaced.
func sendWelcome(ctx context.Context, deps RegisterMemberDeps, rec member.Record) {
	if deps.Email == nil || rec.Email == "" {
		return
	}
	html := fmt.Sprintf("<p>Hola %s,</p><p>Tu alta en el gimnasio se ha completado. Disciplina: %s, plan: %s (%s).</p><p>¡Te esperamos!</p>",
		rec.Name, rec.Discipline, rec.Plan, rec.Price)
	_, err := deps.Email.Send(ctx, email.SendRequest{
		To:      []string{rec.Email},
		From:    deps.From,
		Subject: "Bienvenido/a al gimnasio",
		HTML:    html,
	})
	if err != nil {
		slog.Warn("intake_event", "event", "welcome_email_failed", "dni", rec.DNI, "error", err)
	}
}
