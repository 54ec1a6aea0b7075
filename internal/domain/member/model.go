package member

import (
	"errors"
	"fmt"
	"strings"
)

// Status values as stored in the sheet.
const (
	StatusActive   = "Activo"
	StatusInactive = "Baja"
)

// Payment status values as stored in the sheet.
const (
	PaymentPaid   = "Pagado"
	PaymentUnpaid = "No pagado"
)

// Actions a member record can expose to the UI, gated by the state machine.
const (
	ActionDeactivate = "deactivate"
	ActionReactivate = "reactivate"
	ActionMarkPaid   = "mark_paid"
	ActionMarkUnpaid = "mark_unpaid"
	ActionView       = "view"
)

// Domain errors.
var (
	ErrAlreadyInactive = errors.New("member is already deregistered")
	ErrAlreadyActive   = errors.New("member is already active")
	ErrInactive        = errors.New("member is deregistered; only reactivate is allowed")
	ErrAlreadyPaid     = errors.New("member is already marked as paid")
	ErrAlreadyUnpaid   = errors.New("member is already marked as unpaid")
	ErrDuplicateDNI    = errors.New("a member with this DNI already exists")
	ErrNotFound        = errors.New("member not found")
)

// Record is one row of the member sheet. JSON tags match the wire column
// names so queued snapshots round-trip in the sheet's own vocabulary.
type Record struct {
	Name            string `json:"Nombre"`
	Surname         string `json:"Apellidos"`
	DNI             string `json:"DNI"`
	Phone           string `json:"Teléfono"`
	Email           string `json:"Email"`
	Discipline      string `json:"Disciplina"`
	Plan            string `json:"Plan contratado"`
	Price           string `json:"Precio"`
	BirthDate       string `json:"Fecha nacimiento"`
	JoinDate        string `json:"Fecha de alta"`
	Bank            string `json:"Banco"`
	Holder          string `json:"Titular"`
	IBAN            string `json:"IBAN"`
	Locality        string `json:"Localidad"`
	Status          string `json:"Estado"`
	PaymentStatus   string `json:"Estado de pago"`
	LastPaymentDate string `json:"Fecha último pago"`
	DocConsentURL   string `json:"URL PDF Consentimiento"`
	DocWhatsAppURL  string `json:"URL Doc WhatsApp"`
	DocAdvertURL    string `json:"URL Doc Publicidad"`
	DocUnder14URL   string `json:"URL Doc Menor14"`
	Doc14to18URL    string `json:"URL Doc 14-18"`
}

// Row serializes the record in canonical column order.
// INVARIANT: len(result) == len(Columns); order is fixed on every write
func (r Record) Row() []string {
	return []string{
		r.Name, r.Surname, r.DNI, r.Phone, r.Email,
		r.Discipline, r.Plan, r.Price, r.BirthDate, r.JoinDate,
		r.Bank, r.Holder, r.IBAN, r.Locality,
		r.Status, r.PaymentStatus, r.LastPaymentDate,
		r.DocConsentURL, r.DocWhatsAppURL, r.DocAdvertURL, r.DocUnder14URL, r.Doc14to18URL,
	}
}

// FromRow builds a Record from a canonical-order row.
// PRE: row came from Table.EnsureColumns, so it has len(Columns) cells
func FromRow(row []string) Record {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Name: get(0), Surname: get(1), DNI: get(2), Phone: get(3), Email: get(4),
		Discipline: get(5), Plan: get(6), Price: get(7), BirthDate: get(8), JoinDate: get(9),
		Bank: get(10), Holder: get(11), IBAN: get(12), Locality: get(13),
		Status: get(14), PaymentStatus: get(15), LastPaymentDate: get(16),
		DocConsentURL: get(17), DocWhatsAppURL: get(18), DocAdvertURL: get(19),
		DocUnder14URL: get(20), Doc14to18URL: get(21),
	}
}

// RecordsFromTable converts an ensured table into records.
func RecordsFromTable(t Table) []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, FromRow(row))
	}
	return records
}

// RowsFromRecords serializes records for a full-table write.
func RowsFromRecords(records []Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}

// IsActive returns true unless the member has been deregistered.
// INVARIANT: Record fields are not mutated
func (r *Record) IsActive() bool {
	return !strings.EqualFold(strings.TrimSpace(r.Status), StatusInactive)
}

// IsPaid returns true if the payment status is currently Paid.
// INVARIANT: Record fields are not mutated
func (r *Record) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(r.PaymentStatus), PaymentPaid)
}

// Deactivate deregisters the member (soft delete; the row is kept).
// PRE: member is active
// POST: Status is Baja
func (r *Record) Deactivate() error {
	if !r.IsActive() {
		return ErrAlreadyInactive
	}
	r.Status = StatusInactive
	return nil
}

// Reactivate returns a deregistered member to active status.
// PRE: member is deregistered
// POST: Status is Activo
func (r *Record) Reactivate() error {
	if r.IsActive() {
		return ErrAlreadyActive
	}
	r.Status = StatusActive
	return nil
}

// MarkPaid records a payment. Deregistered members cannot be marked.
// PRE: member is active and not already paid
// POST: PaymentStatus is Pagado, LastPaymentDate is set to paidAt
func (r *Record) MarkPaid(paidAt string) error {
	if !r.IsActive() {
		return ErrInactive
	}
	if r.IsPaid() {
		return ErrAlreadyPaid
	}
	r.PaymentStatus = PaymentPaid
	r.LastPaymentDate = paidAt
	return nil
}

// MarkUnpaid reverts the payment status. The last payment date is kept.
// PRE: member is active and currently paid
// POST: PaymentStatus is No pagado
func (r *Record) MarkUnpaid() error {
	if !r.IsActive() {
		return ErrInactive
	}
	if !r.IsPaid() {
		return ErrAlreadyUnpaid
	}
	r.PaymentStatus = PaymentUnpaid
	return nil
}

// AllowedActions returns the action set the UI may offer for this record.
// Deregistered members expose only reactivate and view.
func (r *Record) AllowedActions() []string {
	if !r.IsActive() {
		return []string{ActionReactivate, ActionView}
	}
	actions := []string{ActionDeactivate}
	if r.IsPaid() {
		actions = append(actions, ActionMarkUnpaid)
	} else {
		actions = append(actions, ActionMarkPaid)
	}
	return append(actions, ActionView)
}

// FindByDNI locates a record by national ID.
// INVARIANT: DNI is unique among records, so the first match is the match
func FindByDNI(records []Record, dni string) (int, error) {
	needle := strings.ToUpper(strings.TrimSpace(dni))
	for i := range records {
		if strings.ToUpper(strings.TrimSpace(records[i].DNI)) == needle {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, dni)
}
