package projections

import (
	"context"
	"sort"
	"strings"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/member"
)

// GetMemberListQuery carries search and paging parameters.
type GetMemberListQuery struct {
	Search string // case-insensitive substring over name, surname, DNI, phone, email
	By     string // restrict Search to one field: dni, nombre, apellidos, telefono, email
	Status string // "", "Activo" or "Baja"
	Page   listutil.PageParams
}

// GetMemberListResult carries one page of the member table.
type GetMemberListResult struct {
	Members  []member.Record
	PageInfo listutil.PageInfo
}

// GetMemberListDeps holds dependencies for QueryGetMemberList.
type GetMemberListDeps struct {
	Members MemberSource
}

// QueryGetMemberList retrieves a filtered, paged member listing.
// POST: Members sorted by surname then name; PageInfo reflects the
// filtered total, not the sheet size
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) GetMemberListResult {
	records := deps.Members.Load(ctx)

	needle := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []member.Record
	for _, r := range records {
		if query.Status != "" && !strings.EqualFold(strings.TrimSpace(r.Status), query.Status) {
			continue
		}
		if needle != "" && !matchesSearch(r, query.By, needle) {
			continue
		}
		matched = append(matched, r)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := strings.ToLower(matched[i].Surname), strings.ToLower(matched[j].Surname)
		if si != sj {
			return si < sj
		}
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})

	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(matched))
	return GetMemberListResult{Members: matched[info.Offset():info.EndRow()], PageInfo: info}
}

// matchesSearch checks the searchable columns, or just one when by names it.
// An unknown by value falls back to searching every column.
func matchesSearch(r member.Record, by, needle string) bool {
	var fields []string
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "dni":
		fields = []string{r.DNI}
	case "nombre":
		fields = []string{r.Name}
	case "apellidos":
		fields = []string{r.Surname}
	case "telefono":
		fields = []string{r.Phone}
	case "email":
		fields = []string{r.Email}
	default:
		fields = []string{r.Name, r.Surname, r.DNI, r.Phone, r.Email}
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
