package projections

import (
	"context"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// MemberSource provides the current member table. Reads are fail-soft:
// an unreachable backend yields an empty table, never an error.
type MemberSource interface {
	Load(ctx context.Context) []member.Record
}

// HistorySource provides recent audit entries for one member.
type HistorySource interface {
	History(ctx context.Context, dni string, limit int) []audit.Entry
}
