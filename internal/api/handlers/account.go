package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/session-auth/internal/api/middleware"
	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/service"
)

type AccountHandler struct {
	authService *service.AuthService
	cookies     middleware.CookieOptions
}

func NewAccountHandler(authService *service.AuthService, cookies middleware.CookieOptions) *AccountHandler {
	return &AccountHandler{authService: authService, cookies: cookies}
}

type AccountResponse struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Roles     []domain.Role `json:"roles"`
	IsActive  bool          `json:"isActive"`
	CreatedAt time.Time     `json:"createdAt"`
}

func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID.String(),
		Username:  account.Username,
		Roles:     account.RoleSet(),
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
	}
}

func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, "handlers.SignUp", invalidBody(err))
		return
	}

	carrier := middleware.NewCookieCarrier(w, r, h.cookies)
	result, err := h.authService.SignUp(r.Context(), carrier, creds)
	if err != nil {
		writeError(w, "handlers.SignUp", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *AccountHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, "handlers.LogIn", invalidBody(err))
		return
	}

	carrier := middleware.NewCookieCarrier(w, r, h.cookies)
	result, err := h.authService.LogIn(r.Context(), carrier, creds)
	if err != nil {
		writeError(w, "handlers.LogIn", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) LogOut(w http.ResponseWriter, r *http.Request) {
	carrier := middleware.NewCookieCarrier(w, r, h.cookies)
	result, err := h.authService.LogOut(r.Context(), carrier)
	if err != nil {
		writeError(w, "handlers.LogOut", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) LogOutEverywhere(w http.ResponseWriter, r *http.Request) {
	carrier := middleware.NewCookieCarrier(w, r, h.cookies)
	result, err := h.authService.LogOutEverywhere(r.Context(), carrier)
	if err != nil {
		writeError(w, "handlers.LogOutEverywhere", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Me requires the Auth middleware.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, "handlers.Me", domain.ErrAuthenticationFailed)
		return
	}

	account, err := h.authService.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, "handlers.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(account))
}
