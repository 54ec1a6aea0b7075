package projections

import (
	"context"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// GetMemberProfileQuery names the member to look up.
type GetMemberProfileQuery struct {
	DNI          string
	HistoryLimit int // 0 uses the history source's default
}

// GetMemberProfileResult carries one member with its UI affordances.
type GetMemberProfileResult struct {
	Member  member.Record
	Actions []string // allowed state-machine actions
	History []audit.Entry
}

// GetMemberProfileDeps holds dependencies for QueryGetMemberProfile.
type GetMemberProfileDeps struct {
	Members MemberSource
	History HistorySource
}

// QueryGetMemberProfile retrieves a member, its allowed actions and its
// recent audit trail.
// POST: History is newest-first; an unreachable log yields an empty slice
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	records := deps.Members.Load(ctx)
	idx, err := member.FindByDNI(records, query.DNI)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	rec := records[idx]

	var history []audit.Entry
	if deps.History != nil {
		history = deps.History.History(ctx, rec.DNI, query.HistoryLimit)
	}
	return GetMemberProfileResult{
		Member:  rec,
		Actions: rec.AllowedActions(),
		History: history,
	}, nil
}
