package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/harborline/fleetd/internal/app"
	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/metrics"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/middleware"
)

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// Options tunes handler construction.
type Options struct {
	// AuditFile, when set, receives a JSONL record of every mutating vessel
	// action in addition to the bounded in-memory tail.
	AuditFile string
	AuditMax  int
}

// NewHandler returns the REST API router.
func NewHandler(application *app.Application, opts Options) (http.Handler, error) {
	sink, err := newFileAuditSink(opts.AuditFile)
	if err != nil {
		return nil, err
	}
	h := &handler{app: application, audit: newAuditLog(opts.AuditMax, sink)}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", h.signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/confirmation", h.confirm).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset", h.requestReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset", h.reset).Methods(http.MethodPut)

	api.HandleFunc("/vessel/{userId}/{vesselName}", h.members).Methods(http.MethodGet)
	api.HandleFunc("/vessel/{userId}/{vesselName}/{membershipId}", h.removeMember).Methods(http.MethodDelete)

	api.HandleFunc("/invitation", h.invite).Methods(http.MethodPost)
	api.HandleFunc("/invitation/verification", h.acceptInvitation).Methods(http.MethodPost)

	api.HandleFunc("/requests/{userId}/{vesselName}", h.createRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{userId}/{vesselName}/{rows}/{page}", h.listRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/{userId}/{vesselName}/{rows}/{page}/{requestType}", h.listRequests).Methods(http.MethodGet)

	api.HandleFunc("/request-types/{userId}/{vesselName}", h.listRequestTypes).Methods(http.MethodGet)
	api.HandleFunc("/request-types/{userId}/{vesselName}", h.createRequestType).Methods(http.MethodPost)

	api.HandleFunc("/dashboard/{userId}/{vesselName}", h.dashboard).Methods(http.MethodGet)
	api.HandleFunc("/waybill/{waybillType}/{trackingNumber}", h.trackWaybill).Methods(http.MethodGet)

	api.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	return r, nil
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// callerID returns the authenticated user and enforces that the {userId} path
// parameter, when present, names the caller. Tokens are not transferable
// between user-scoped routes.
func callerID(r *http.Request) (string, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return "", errors.Unauthorized("authentication required")
	}
	if pathUser, ok := mux.Vars(r)["userId"]; ok && pathUser != userID {
		return "", errors.Forbidden("path user does not match token")
	}
	return userID, nil
}

// --- auth -------------------------------------------------------------------

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		Name        string `json:"name"`
		Institution string `json:"institution"`
		Contact     string `json:"contact"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	u, err := h.app.Accounts.Signup(r.Context(), payload.Email, payload.Password, payload.Name, payload.Institution, payload.Contact)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	token, u, err := h.app.Accounts.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"token": token, "user": u})
}

func (h *handler) confirm(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	if err := h.app.Accounts.Confirm(r.Context(), payload.Email, payload.Code); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "email confirmed")
}

func (h *handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	if err := h.app.Accounts.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "reset code sent if the account exists")
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	if err := h.app.Accounts.ResetPassword(r.Context(), payload.Email, payload.Code, payload.Password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// --- crew -------------------------------------------------------------------

func (h *handler) members(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vesselName := mux.Vars(r)["vesselName"]

	_, v, err := h.app.Access.Resolve(r.Context(), userID, vesselName)
	if err != nil {
		writeError(w, err)
		return
	}

	members, err := h.app.Crews.Members(r.Context(), v.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, members)
}

func (h *handler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)

	removed, err := h.app.Crews.Remove(r.Context(), userID, vars["vesselName"], vars["membershipId"])
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.add(auditEntry{
		Time:       removed.JoinedAt.UTC(),
		User:       userID,
		Vessel:     removed.VesselID,
		Action:     "member_removed",
		Subject:    removed.ID,
		RemoteAddr: r.RemoteAddr,
	})
	writeData(w, http.StatusOK, removed)
}

// --- invitations ------------------------------------------------------------

func (h *handler) invite(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Email      string `json:"email"`
		Role       string `json:"role"`
		InvitedBy  string `json:"invitedBy"`
		VesselName string `json:"vesselName"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}
	if payload.InvitedBy != "" && payload.InvitedBy != userID {
		writeError(w, errors.Forbidden("invitedBy does not match token"))
		return
	}

	role, err := crew.ParseRole(payload.Role)
	if err != nil {
		writeError(w, errors.Validation("role must be supplier, officer or crew"))
		return
	}

	inv, err := h.app.Invitations.Invite(r.Context(), payload.Email, payload.VesselName, role, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.add(auditEntry{
		Time:       inv.CreatedAt.UTC(),
		User:       userID,
		Vessel:     inv.VesselID,
		Action:     "invitation_issued",
		Subject:    inv.Email,
		RemoteAddr: r.RemoteAddr,
	})
	writeData(w, http.StatusCreated, inv)
}

func (h *handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Code   string `json:"code"`
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}
	if payload.UserID != "" && payload.UserID != userID {
		writeError(w, errors.Forbidden("userId does not match token"))
		return
	}

	m, err := h.app.Invitations.Accept(r.Context(), payload.Code, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

// --- requests ---------------------------------------------------------------

func (h *handler) listRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)

	rows, err := strconv.Atoi(vars["rows"])
	if err != nil {
		writeError(w, errors.Validation("rows must be a positive integer"))
		return
	}
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		writeError(w, errors.Validation("page must be a positive integer"))
		return
	}

	_, v, err := h.app.Access.Resolve(r.Context(), userID, vars["vesselName"])
	if err != nil {
		writeError(w, err)
		return
	}

	items, pageMeta, err := h.app.Requests.List(r.Context(), v.ID, rows, page, vars["requestType"])
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, items, pageMeta)
}

func (h *handler) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Type  string `json:"type"`
		Title string `json:"title"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	_, v, err := h.app.Access.Resolve(r.Context(), userID, mux.Vars(r)["vesselName"])
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.app.Requests.Create(r.Context(), v.ID, userID, payload.Type, payload.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (h *handler) listRequestTypes(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	_, v, err := h.app.Access.Resolve(r.Context(), userID, mux.Vars(r)["vesselName"])
	if err != nil {
		writeError(w, err)
		return
	}

	types, err := h.app.Requests.ListTypes(r.Context(), v.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, types)
}

func (h *handler) createRequestType(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Label string `json:"label"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, errors.Validation("invalid request body"))
		return
	}

	_, v, err := h.app.Access.ResolveRole(r.Context(), userID, mux.Vars(r)["vesselName"], crew.RoleSupplier)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.app.Requests.CreateType(r.Context(), v.ID, payload.Name, payload.Label, payload.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// --- dashboard and waybills -------------------------------------------------

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	_, v, err := h.app.Access.Resolve(r.Context(), userID, mux.Vars(r)["vesselName"])
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.app.Dashboard.Summary(r.Context(), v.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (h *handler) trackWaybill(w http.ResponseWriter, r *http.Request) {
	if _, err := callerID(r); err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)

	wb, err := h.app.Waybills.Track(r.Context(), vars["waybillType"], vars["trackingNumber"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, wb)
}

// --- audit ------------------------------------------------------------------

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	if _, err := callerID(r); err != nil {
		writeError(w, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.Validation("limit must be an integer"))
			return
		}
		limit = parsed
	}
	writeData(w, http.StatusOK, h.audit.listLimit(limit))
}
