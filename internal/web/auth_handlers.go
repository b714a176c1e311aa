package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/metrics"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// handleSignupForm renders the signup form.
// GET /signup
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	if session.User(r.Context()) != nil {
		http.Redirect(w, r, "/books", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "signup", AuthPage{Base: s.base(w, r, "Sign up")})
}

// handleSignup creates an account and signs it in.
// POST /signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	req := service.SignupRequest{
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		DisplayName: r.PostFormValue("display_name"),
		Handle:      r.PostFormValue("handle"),
	}

	result, err := s.services.Auth.Signup(r.Context(), req, clientInfo(r))
	if err != nil {
		metrics.RecordAuthEvent("signup", "failure")
		page := AuthPage{Email: req.Email, DisplayName: req.DisplayName, Handle: req.Handle}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Sign up")
			s.render(w, status, "signup", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	metrics.RecordAuthEvent("signup", "success")
	s.sessions.Set(w, result.Token, result.Session.ExpiresAt)
	s.redirect(w, r, "/books", FlashSuccess, "Welcome to BookBuddy, "+result.User.Name()+"!")
}

// handleLoginForm renders the login form.
// GET /login?next=
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), "")
	if session.User(r.Context()) != nil {
		http.Redirect(w, r, safeNext(next, "/"), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", AuthPage{Base: s.base(w, r, "Log in"), Next: next})
}

// handleLogin signs a user in. Failures never reveal whether the email is
// registered.
// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := service.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	next := safeNext(r.PostFormValue("next"), "")

	result, err := s.services.Auth.Login(r.Context(), req, clientInfo(r))
	if err != nil {
		metrics.RecordAuthEvent("login", "failure")
		page := AuthPage{Email: req.Email, Next: next}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Log in")
			s.render(w, status, "login", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	metrics.RecordAuthEvent("login", "success")
	s.sessions.Set(w, result.Token, result.Session.ExpiresAt)
	s.redirect(w, r, safeNext(next, "/books"), "", "")
}

// handleLogout ends the session. It succeeds without one.
// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := session.Token(r); token != "" {
		if err := s.services.Auth.Logout(r.Context(), token); err != nil {
			s.log(r).Warn("logout failed", "error", err)
		}
	}
	metrics.RecordAuthEvent("logout", "success")
	s.sessions.Clear(w)
	s.redirect(w, r, "/", FlashInfo, "You have been logged out.")
}

// handleResetRequestForm renders the forgotten password form.
// GET /password-reset
func (s *Server) handleResetRequestForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "reset_request", ResetRequestPage{Base: s.base(w, r, "Reset password")})
}

// handleResetRequest emails a reset link. The response is the same whether
// or not the address has an account.
// POST /password-reset
func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	req := service.RequestResetRequest{Email: r.PostFormValue("email")}
	page := ResetRequestPage{Email: req.Email}

	if err := s.services.Resets.RequestPasswordReset(r.Context(), req); err != nil {
		metrics.RecordAuthEvent("password_reset_request", "failure")
		status, ok := page.fail(err)
		if !ok {
			s.handleError(w, r, err)
			return
		}
		page.Base = s.base(w, r, "Reset password")
		s.render(w, status, "reset_request", page)
		return
	}

	metrics.RecordAuthEvent("password_reset_request", "success")
	page.Base = s.base(w, r, "Reset password")
	page.Sent = true
	s.render(w, http.StatusOK, "reset_request", page)
}

// handleResetForm renders the new password form for a reset link.
// GET /password-reset/{token}
func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	page := ResetPage{Token: token}
	status := http.StatusOK

	if err := s.services.Resets.CheckToken(r.Context(), token); err != nil {
		if !isTokenError(err) {
			s.handleError(w, r, err)
			return
		}
		page.Invalid = true
		page.Message = userMessage(err)
		status = http.StatusBadRequest
	}

	page.Base = s.base(w, r, "Choose a new password")
	s.render(w, status, "reset", page)
}

// handleReset sets the new password and signs every session out.
// POST /password-reset/{token}
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	req := service.ResetPasswordRequest{
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
	}

	err := s.services.Resets.ResetPassword(r.Context(), token, req)
	if err == nil {
		metrics.RecordAuthEvent("password_reset", "success")
		s.sessions.Clear(w)
		s.redirect(w, r, "/login", FlashSuccess, "Your password has been changed. Please log in.")
		return
	}

	metrics.RecordAuthEvent("password_reset", "failure")
	page := ResetPage{Token: token}
	var status int
	switch {
	case isTokenError(err):
		page.Invalid = true
		page.Message = userMessage(err)
		status = http.StatusBadRequest
	default:
		var ok bool
		if status, ok = page.fail(err); !ok {
			s.handleError(w, r, err)
			return
		}
	}
	page.Base = s.base(w, r, "Choose a new password")
	s.render(w, status, "reset", page)
}

func isTokenError(err error) bool {
	code := domainerrors.CodeOf(err)
	return code == domainerrors.CodeInvalidToken || code == domainerrors.CodeExpiredToken
}
