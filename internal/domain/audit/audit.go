// Package audit models the append-only action log kept in the "Logs"
// sub-table next to the member sheet.
package audit

import "time"

// SheetName is the sub-table holding the audit log.
const SheetName = "Logs"

// Header is the fixed column set of the audit sheet, created on first write.
var Header = []string{"Fecha", "Usuario", "Acción", "DNI", "Detalle"}

// TimestampLayout is the wire format of the Fecha column.
const TimestampLayout = "02-01-2006 15:04:05"

// Action tags recorded by the application.
const (
	ActionRegister   = "alta"
	ActionDeregister = "baja"
	ActionEdit       = "editar"
	ActionPaid       = "pagado"
	ActionUnpaid     = "no pagado"
)

// UnknownActor is recorded when no actor is available.
const UnknownActor = "desconocido"

// Entry is one audit log line. Entries are append-only and never mutated.
type Entry struct {
	Timestamp time.Time
	Actor     string
	Action    string
	SubjectID string // member DNI
	Detail    string
}

// Row serializes the entry in Header order.
// INVARIANT: len(result) == len(Header)
func (e Entry) Row() []string {
	actor := e.Actor
	if actor == "" {
		actor = UnknownActor
	}
	return []string{
		e.Timestamp.Format(TimestampLayout),
		actor,
		e.Action,
		e.SubjectID,
		e.Detail,
	}
}

// FromRow parses an audit sheet row back into an Entry. Short rows are
// tolerated; an unparseable timestamp is left as the zero time.
func FromRow(row []string) Entry {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	ts, _ := time.Parse(TimestampLayout, get(0))
	return Entry{
		Timestamp: ts,
		Actor:     get(1),
		Action:    get(2),
		SubjectID: get(3),
		Detail:    get(4),
	}
}
