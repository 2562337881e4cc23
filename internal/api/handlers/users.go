package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/session-auth/internal/api/middleware"
	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/service"
)

type UsersHandler struct {
	authService *service.AuthService
	cookies     middleware.CookieOptions
}

func NewUsersHandler(authService *service.AuthService, cookies middleware.CookieOptions) *UsersHandler {
	return &UsersHandler{authService: authService, cookies: cookies}
}

type UsersResponse struct {
	Users  []AccountResponse `json:"users"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// List pages through all accounts. Admin only.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, "handlers.ListUsers", err)
		return
	}

	carrier := middleware.NewCookieCarrier(w, r, h.cookies)
	accounts, err := h.authService.ListAccounts(r.Context(), carrier, page)
	if err != nil {
		writeError(w, "handlers.ListUsers", err)
		return
	}

	resp := UsersResponse{
		Users:  make([]AccountResponse, 0, len(accounts)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, account := range accounts {
		resp.Users = append(resp.Users, NewAccountResponse(account))
	}

	writeJSON(w, http.StatusOK, resp)
}

func parsePagination(r *http.Request) (domain.Pagination, error) {
	page := domain.Pagination{Limit: domain.DefaultPageLimit}
	fields := map[string]string{}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			fields["limit"] = "must be an integer"
		}
		page.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			fields["offset"] = "must be an integer"
		}
		page.Offset = offset
	}

	if len(fields) > 0 {
		return page, &domain.FieldError{Fields: fields}
	}
	return page, nil
}
