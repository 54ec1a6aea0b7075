package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// maxUploadBytes caps multipart document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

func registerRoutes(mux *http.ServeMux) {
	staff := middleware.RequireRole(account.RoleAdmin, account.RoleEmployee)
	admin := middleware.RequireRole(account.RoleAdmin)

	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("GET /api/intake/legal", handleIntakeLegal)

	mux.Handle("GET /api/me", staff(http.HandlerFunc(handleMe)))
	mux.Handle("GET /api/catalog", staff(http.HandlerFunc(handleCatalog)))

	mux.Handle("GET /api/members", staff(http.HandlerFunc(handleListMembers)))
	mux.Handle("GET /api/members/search", staff(http.HandlerFunc(handleSearchMembers)))
	mux.Handle("POST /api/members", staff(http.HandlerFunc(handleRegisterMember)))
	mux.Handle("GET /api/members/{dni}", staff(http.HandlerFunc(handleGetMember)))
	mux.Handle("PUT /api/members/{dni}", admin(http.HandlerFunc(handleEditMember)))
	mux.Handle("GET /api/members/{dni}/actions", staff(http.HandlerFunc(handleMemberActions)))
	mux.Handle("POST /api/members/{dni}/actions", staff(http.HandlerFunc(handleMemberAction)))
	mux.Handle("GET /api/members/{dni}/history", staff(http.HandlerFunc(handleMemberHistory)))
	mux.Handle("POST /api/members/{dni}/documents", staff(http.HandlerFunc(handleUploadDocument)))

	mux.Handle("GET /api/stats", admin(http.HandlerFunc(handleStats)))
	mux.Handle("GET /api/sync/status", staff(http.HandlerFunc(handleSyncStatus)))

	mux.Handle("GET /api/users", admin(http.HandlerFunc(handleListUsers)))
	mux.Handle("POST /api/users", admin(http.HandlerFunc(handleCreateUser)))
	mux.Handle("DELETE /api/users/{username}", admin(http.HandlerFunc(handleDeleteUser)))

	mux.Handle("POST /api/admin/backup", admin(http.HandlerFunc(handleManualBackup)))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// internalError logs the real error and returns a generic message to the
// client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// validationErrors map to 400; they are user-correctable input problems.
var validationErrors = []error{
	member.ErrMissingFields,
	member.ErrBadDNI,
	member.ErrBadPhone,
	member.ErrBadEmail,
	member.ErrBadIBAN,
	orchestrators.ErrBirthDateFormat,
	orchestrators.ErrAgeOutOfRange,
	orchestrators.ErrUnknownDiscipline,
	orchestrators.ErrUnknownPlan,
	orchestrators.ErrUnknownAction,
	orchestrators.ErrUnknownDocument,
	orchestrators.ErrDocumentNotInQueue,
	orchestrators.ErrBadDecision,
	orchestrators.ErrEmptyPDF,
	account.ErrEmptyUsername,
	account.ErrUsernameTooLong,
	account.ErrInvalidRole,
	account.ErrEmptyPassword,
	account.ErrWeakPassword,
}

// conflictErrors map to 409; the request is well-formed but collides
// with current state.
var conflictErrors = []error{
	member.ErrDuplicateDNI,
	member.ErrAlreadyInactive,
	member.ErrAlreadyActive,
	member.ErrInactive,
	member.ErrAlreadyPaid,
	member.ErrAlreadyUnpaid,
	account.ErrDuplicateUser,
	account.ErrSelfDelete,
	account.ErrLastAdmin,
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, member.ErrNotFound) || errors.Is(err, account.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case matchesAny(err, validationErrors):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case matchesAny(err, conflictErrors):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

func matchesAny(err error, sentinels []error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// actorFromContext returns the logged-in username for audit attribution.
func actorFromContext(r *http.Request) string {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return sess.Username
	}
	return ""
}

// --- Auth handlers ---

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.LoginInput
	if err := strictDecode(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{Accounts: app.Accounts})
	if err != nil {
		if errors.Is(err, orchestrators.ErrBadCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		internalError(w, err)
		return
	}

	token, err := sessions.Create(a.ID, a.Username, a.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{
		"username":  a.Username,
		"full_name": a.FullName,
		"role":      a.Role,
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	a, err := app.Accounts.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		// Session outlived the account; treat as logged out.
		if errors.Is(err, account.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username":  a.Username,
		"full_name": a.FullName,
		"role":      a.Role,
	})
}

// --- Member handlers ---

func handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetMemberListQuery{
		Search: q.Get("q"),
		Status: q.Get("status"),
		Page:   listutil.ParsePageParams(q),
	}
	result := projections.QueryGetMemberList(r.Context(), query, projections.GetMemberListDeps{Members: app.Syncer})
	writeJSON(w, http.StatusOK, result)
}

// handleSearchMembers is the field-scoped variant of the listing: ?by=
// names a single column (dni, nombre, apellidos, telefono, email) and ?q=
// is matched against it alone.
func handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetMemberListQuery{
		Search: q.Get("q"),
		By:     q.Get("by"),
		Status: q.Get("status"),
		Page:   listutil.ParsePageParams(q),
	}
	result := projections.QueryGetMemberList(r.Context(), query, projections.GetMemberListDeps{Members: app.Syncer})
	writeJSON(w, http.StatusOK, result)
}

func handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.RegisterMemberInput
	if err := strictDecode(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	input.Actor = actorFromContext(r)

	rec, err := orchestrators.ExecuteRegisterMember(r.Context(), input, orchestrators.RegisterMemberDeps{
		Syncer: app.Syncer,
		Email:  app.Email,
		From:   app.EmailFrom,
		Now:    timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func handleGetMember(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetMemberProfile(r.Context(),
		projections.GetMemberProfileQuery{DNI: r.PathValue("dni")},
		projections.GetMemberProfileDeps{Members: app.Syncer, History: app.Syncer})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleEditMember(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.EditMemberInput
	if err := strictDecode(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	input.DNI = r.PathValue("dni")
	input.Actor = actorFromContext(r)

	rec, err := orchestrators.ExecuteEditMember(r.Context(), input, orchestrators.EditMemberDeps{
		Syncer: app.Syncer,
		Now:    timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func handleMemberActions(w http.ResponseWriter, r *http.Request) {
	records := app.Syncer.Load(r.Context())
	idx, err := member.FindByDNI(records, r.PathValue("dni"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"actions": records[idx].AllowedActions()})
}

func handleMemberAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if err := strictDecode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Employees may only deregister; the rest of the state machine is
	// admin-only.
	if !middleware.IsAdmin(r.Context()) && body.Action != member.ActionDeactivate {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	rec, err := orchestrators.ExecuteMemberAction(r.Context(), orchestrators.MemberActionInput{
		DNI:    r.PathValue("dni"),
		Action: body.Action,
		Actor:  actorFromContext(r),
	}, orchestrators.MemberActionDeps{Syncer: app.Syncer, Now: timeNow})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func handleMemberHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries := app.Syncer.History(r.Context(), r.PathValue("dni"), limit)

	type entryJSON struct {
		Timestamp string `json:"timestamp"`
		Actor     string `json:"actor"`
		Action    string `json:"action"`
		Detail    string `json:"detail"`
	}
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{
			Timestamp: e.Timestamp.Format("02-01-2006 15:04:05"),
			Actor:     e.Actor,
			Action:    e.Action,
			Detail:    e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	input := orchestrators.UploadDocumentInput{
		DNI:      r.PathValue("dni"),
		DocType:  r.FormValue("doc_type"),
		Decision: r.FormValue("decision"),
		Actor:    actorFromContext(r),
	}
	if file, _, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		pdf, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			internalError(w, err)
			return
		}
		input.PDF = pdf
	}

	url, err := orchestrators.ExecuteUploadDocument(r.Context(), input, orchestrators.UploadDocumentDeps{
		Syncer:    app.Syncer,
		Documents: app.Documents,
		Now:       timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// --- Dashboard and sync handlers ---

func handleStats(w http.ResponseWriter, r *http.Request) {
	stats := projections.QueryGetStats(r.Context(), projections.GetStatsDeps{Members: app.Syncer, Now: timeNow})
	writeJSON(w, http.StatusOK, stats)
}

func handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	replayed := 0
	if v := w.Header().Get("X-Sync-Replayed"); v != "" {
		replayed, _ = strconv.Atoi(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"degraded": app.Syncer.Degraded(),
		"pending":  app.Syncer.PendingCount(),
		"replayed": replayed,
	})
}

// --- Intake catalog and legal notice ---

// handleCatalog exposes the plan catalog the intake form is built from.
func handleCatalog(w http.ResponseWriter, r *http.Request) {
	type planJSON struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	plans := func(src []member.Plan) []planJSON {
		out := make([]planJSON, 0, len(src))
		for _, p := range src {
			out = append(out, planJSON{Name: p.Name, Price: p.Price})
		}
		return out
	}

	adult := make(map[string][]planJSON, len(member.AdultDisciplines))
	for _, d := range member.AdultDisciplines {
		adult[d] = plans(member.AdultPlans[d])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"disciplines":      member.AdultDisciplines,
		"plans":            adult,
		"child_discipline": member.DisciplineChildren,
		"child_plans":      plans(member.ChildPlans),
		"child_max_age":    member.ChildMaxAge,
		"min_age":          member.MinAge,
	})
}

func handleIntakeLegal(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(app.LegalText), &buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// --- User admin handlers ---

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := orchestrators.QueryListUsers(r.Context(), orchestrators.ListUsersDeps{Accounts: app.Accounts})
	if err != nil {
		internalError(w, err)
		return
	}
	type userJSON struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateUserInput
	if err := strictDecode(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := orchestrators.ExecuteCreateUser(r.Context(), input, orchestrators.CreateUserDeps{
		Accounts: app.Accounts,
		Now:      timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       a.ID,
		"username": a.Username,
		"role":     a.Role,
	})
}

func handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	target, err := app.Accounts.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	err = orchestrators.ExecuteDeleteUser(r.Context(), orchestrators.DeleteUserInput{
		ID:      target.ID,
		ActorID: sess.AccountID,
	}, orchestrators.DeleteUserDeps{Accounts: app.Accounts})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Admin backup handler ---

func handleManualBackup(w http.ResponseWriter, r *http.Request) {
	made, err := orchestrators.ExecuteDailyBackup(r.Context(), orchestrators.BackupDeps{
		Syncer:  app.Syncer,
		Backups: app.Backups,
		Now:     timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"created": made})
}
