package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/api/dto"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/auth"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService *auth.Service
	google      *auth.GoogleProvider
}

func NewAuthHandler(authService *auth.Service, google *auth.GoogleProvider) *AuthHandler {
	return &AuthHandler{authService: authService, google: google}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody, Details: errs})
		return
	}

	resp, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
	})

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Benutzer existiert bereits"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		}
		return
	}

	h.setSessionCookie(w, resp.Token)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token: resp.Token,
		User:  userToDTO(resp.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody, Details: errs})
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Ungültige Anmeldedaten"})
		case errors.Is(err, auth.ErrUserSuspended):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: dto.MsgAccountSuspended})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		}
		return
	}

	h.setSessionCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  userToDTO(resp.User),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Abgemeldet"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgProfileNotFound})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, map[string]dto.UserDTO{"user": userToDTO(user)})
}

// GoogleLogin starts the SSO flow.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   300,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusFound)
}

// GoogleCallback finishes the SSO flow; first logins run the profile
// resolver and create the employee profile on the fly.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.MsgNotFound})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.MsgInvalidBody})
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: dto.MsgUnauthenticated})
		return
	}

	resp, err := h.authService.LoginIdentity(r.Context(), identity.Email, identity.Name)
	if err != nil {
		if errors.Is(err, auth.ErrUserSuspended) {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: dto.MsgAccountSuspended})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: dto.MsgInternalError})
		return
	}

	h.setSessionCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  userToDTO(resp.User),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
}
