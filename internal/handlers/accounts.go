package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seatwise-systems/seatwise/internal/httputil"
	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
	"github.com/seatwise-systems/seatwise/internal/service"
)

// AccountHandler exposes account creation and login.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.CreateAccount(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrInvalidRole):
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrUserExists):
			httputil.WriteError(w, http.StatusConflict, "username already taken")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
