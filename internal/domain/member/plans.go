package member

import "time"

// Age limits for intake.
const (
	MinAge      = 8
	MaxAge      = 100
	ChildMaxAge = 14 // inclusive; 8-14 uses the children's catalog
)

// DisciplineChildren is the single discipline for members aged 8-14.
const DisciplineChildren = "Infantil"

// Plan pairs a plan name with its display price.
type Plan struct {
	Name  string
	Price string
}

// AdultDisciplines lists the disciplines an adult member can join.
var AdultDisciplines = []string{
	"Boxeo / Defensa Personal",
	"Krav Maga / BJJ",
	"Entrenamiento personal / Funcional",
}

// ChildPlans is the catalog for members aged 8-14.
var ChildPlans = []Plan{
	{"1 día/semana", "25€"},
	{"2 días/semana", "45€"},
}

// AdultPlans is the per-discipline catalog for adult members.
var AdultPlans = map[string][]Plan{
	"Boxeo / Defensa Personal": {
		{"1 día/semana", "30€/mes"},
		{"2 días/semana", "50€/mes"},
		{"3 días/semana", "65€/mes"},
		{"Mes ilimitado", "75€/mes"},
		{"Trimestre ilimitado", "210€/trimestre"},
		{"Bono 10 clases", "80€ (caduca 3 meses)"},
	},
	"Krav Maga / BJJ": {
		{"1 día/semana", "30€/mes"},
		{"2 días/semana", "50€/mes"},
	},
	"Entrenamiento personal / Funcional": {
		{"Sesión suelta 1h", "40€"},
		{"Bono 10 sesiones", "340€"},
		{"Bono 20 sesiones", "620€"},
	},
}

// Age computes a person's age at the given date.
func Age(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	return years
}

// IsChild reports whether an age falls in the children's bracket.
func IsChild(age int) bool {
	return age <= ChildMaxAge
}

// PlansFor returns the catalog applicable to a discipline and age bracket.
func PlansFor(discipline string, child bool) []Plan {
	if child {
		return ChildPlans
	}
	return AdultPlans[discipline]
}

// ValidPlan reports whether a plan name exists in the catalog for the
// given discipline and age bracket.
func ValidPlan(discipline, plan string, child bool) bool {
	for _, p := range PlansFor(discipline, child) {
		if p.Name == plan {
			return true
		}
	}
	return false
}

// PlanPrice looks up the catalog price for a plan.
func PlanPrice(discipline, plan string, child bool) (string, bool) {
	for _, p := range PlansFor(discipline, child) {
		if p.Name == plan {
			return p.Price, true
		}
	}
	return "", false
}
