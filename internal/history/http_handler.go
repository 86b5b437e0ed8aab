package history

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/stockhist/internal/auth"
)

// Handler exposes the history service over REST.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with the order-history endpoints.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/information/order-history"), "/")

	switch {
	case r.Method == http.MethodPost && rest == "":
		h.handleRegister(w, r)
	case r.Method == http.MethodGet && rest == "my":
		h.handleMyHistory(w, r)
	case r.Method == http.MethodGet && rest == "admin/all":
		h.handleAdminAll(w, r)
	case r.Method == http.MethodGet && rest == "admin/export":
		h.handleAdminExport(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(rest, "admin/member/"):
		h.handleAdminByMember(w, r, strings.TrimPrefix(rest, "admin/member/"))
	case r.Method == http.MethodGet && strings.HasPrefix(rest, "order/"):
		h.handleByOrderNumber(w, r, strings.TrimPrefix(rest, "order/"))
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleMyHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	page, size := pageParams(r)
	resp, err := h.service.ByMember(r.Context(), principal.MemberID, page, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminAll(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	page, size := pageParams(r)
	resp, err := h.service.All(r.Context(), page, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminByMember(w http.ResponseWriter, r *http.Request, rawMemberID string) {
	if !requireAdmin(w, r) {
		return
	}

	memberID, err := strconv.ParseInt(rawMemberID, 10, 64)
	if err != nil || memberID <= 0 {
		http.Error(w, fmt.Sprintf("invalid member id %q", rawMemberID), http.StatusBadRequest)
		return
	}

	page, size := pageParams(r)
	resp, err := h.service.ByMemberForAdmin(r.Context(), memberID, page, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleByOrderNumber(w http.ResponseWriter, r *http.Request, orderNumber string) {
	if orderNumber == "" {
		http.Error(w, "order number is required", http.StatusBadRequest)
		return
	}

	page, size := pageParams(r)
	resp, err := h.service.ByOrderNumber(r.Context(), orderNumber, page, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	page, size := pageParams(r)
	resp, err := h.service.All(r.Context(), page, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="order-history.xlsx"`)
	if err := writeWorkbook(w, resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// requireAdmin rejects callers without an administrative role. Identity
// itself is asserted upstream; only the role gate lives here.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return false
	}
	if !principal.IsAdmin() {
		http.Error(w, "admin role required", http.StatusForbidden)
		return false
	}
	return true
}

// pageParams reads page/size query values. Out-of-range values are passed
// through; the service clamps them rather than rejecting the request.
func pageParams(r *http.Request) (int, int) {
	page := 0
	size := 20
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			size = parsed
		}
	}
	return page, size
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
