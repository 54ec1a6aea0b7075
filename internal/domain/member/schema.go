package member

import "strings"

// Columns is the canonical column set of the member sheet, in wire order.
// Every write emits exactly these columns; missing fields materialize as "".
var Columns = []string{
	"Nombre",
	"Apellidos",
	"DNI",
	"Teléfono",
	"Email",
	"Disciplina",
	"Plan contratado",
	"Precio",
	"Fecha nacimiento",
	"Fecha de alta",
	"Banco",
	"Titular",
	"IBAN",
	"Localidad",
	"Estado",
	"Estado de pago",
	"Fecha último pago",
	"URL PDF Consentimiento",
	"URL Doc WhatsApp",
	"URL Doc Publicidad",
	"URL Doc Menor14",
	"URL Doc 14-18",
}

// columnSynonyms maps known column-name variants (lowercased, cleaned) to
// the canonical name. Keeps "Plan" and "Plan contratado" from coexisting.
var columnSynonyms = map[string]string{
	"plan":            "Plan contratado",
	"plan contratado": "Plan contratado",
	"plancontratado":  "Plan contratado",
	"tipo de plan":    "Plan contratado",
}

// CanonicalColumn cleans a raw column name and resolves known synonyms.
// PRE: name may be empty or contain underscores/extra whitespace
// POST: Returns the canonical column name, or the cleaned input if unknown
func CanonicalColumn(name string) string {
	if name == "" {
		return name
	}
	clean := strings.Join(strings.Fields(strings.ReplaceAll(strings.TrimSpace(name), "_", " ")), " ")
	if canonical, ok := columnSynonyms[strings.ToLower(clean)]; ok {
		return canonical
	}
	return clean
}

// Table is an in-memory view of the sheet: a header plus string rows.
// Rows are always as wide as Columns after EnsureColumns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a Table from a raw header and rows, padding or truncating
// each row to the header's width.
// PRE: header is the first sheet row; rows may be ragged
// POST: Every row has exactly len(header) cells
func NewTable(header []string, rows [][]string) Table {
	safe := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(header))
		copy(row, r)
		safe = append(safe, row)
	}
	cols := make([]string, len(header))
	copy(cols, header)
	return Table{Columns: cols, Rows: safe}
}

// Normalize renames synonym columns to the canonical schema and consolidates
// duplicates, preferring the first non-empty value per cell.
// POST: No two columns share a canonical name
func (t Table) Normalize() Table {
	out := Table{}
	index := map[string]int{} // canonical name -> column index in out
	for i, col := range t.Columns {
		canonical := CanonicalColumn(col)
		if dst, ok := index[canonical]; ok {
			// Merge this column into the existing one.
			for r := range t.Rows {
				if strings.TrimSpace(valueAt(out.Rows, r, dst)) == "" {
					setValue(out.Rows, r, dst, t.cell(r, i))
				}
			}
			continue
		}
		index[canonical] = len(out.Columns)
		out.Columns = append(out.Columns, canonical)
		for r := range t.Rows {
			if len(out.Rows) <= r {
				out.Rows = append(out.Rows, nil)
			}
			out.Rows[r] = append(out.Rows[r], t.cell(r, i))
		}
	}
	if out.Rows == nil && len(t.Rows) > 0 {
		out.Rows = make([][]string, len(t.Rows))
	}
	return out
}

// EnsureColumns guarantees the presence and order of the fixed schema.
// Unknown columns are dropped; missing ones materialize as "".
// POST: Result columns == Columns; idempotent
func (t Table) EnsureColumns() Table {
	n := t.Normalize()
	index := map[string]int{}
	for i, col := range n.Columns {
		index[col] = i
	}
	out := Table{Columns: append([]string(nil), Columns...)}
	for r := range n.Rows {
		row := make([]string, len(Columns))
		for i, col := range Columns {
			if src, ok := index[col]; ok {
				row[i] = n.cell(r, src)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// MissingColumns reports which canonical columns are absent from a raw
// header. Synonym variants do not count as present: a legacy header like
// "Plan" is drift and the sheet gets rewritten canonically.
func MissingColumns(header []string) []string {
	present := map[string]bool{}
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func (t Table) cell(row, col int) string {
	if row < len(t.Rows) && col < len(t.Rows[row]) {
		return t.Rows[row][col]
	}
	return ""
}

func valueAt(rows [][]string, row, col int) string {
	if row < len(rows) && col < len(rows[row]) {
		return rows[row][col]
	}
	return ""
}

func setValue(rows [][]string, row, col int, v string) {
	if row < len(rows) && col < len(rows[row]) {
		rows[row][col] = v
	}
}
