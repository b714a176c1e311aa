package web

import (
	"errors"
	"net/http"

	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
)

// statusMessages are shown on error pages when the error has no message fit
// for users.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "That request could not be processed.",
	http.StatusForbidden:           "You don't have permission to do that.",
	http.StatusNotFound:            "We couldn't find that page.",
	http.StatusConflict:            "That conflicts with something that already exists.",
	http.StatusTooManyRequests:     "Too many requests. Please slow down.",
	http.StatusInternalServerError: "Something went wrong on our side.",
}

// handleError renders the page for err. A missing session redirects to the
// login page instead.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domainerrors.CodeOf(err)
	if code == domainerrors.CodeUnauthenticated {
		http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
		return
	}

	status := code.HTTPStatus()
	message := statusMessages[status]
	if status >= http.StatusInternalServerError {
		s.log(r).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	} else if msg := userMessage(err); msg != "" {
		message = msg
	}

	s.renderStatus(w, r, status, message)
}

// renderStatus renders the error page with status and message.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = statusMessages[status]
	}
	page := ErrorPage{
		Base:    s.base(w, r, http.StatusText(status)),
		Status:  status,
		Message: message,
	}
	if err := s.renderer.Render(w, status, "error", page); err != nil {
		s.log(r).Error("failed to render error page", "error", err)
		http.Error(w, message, status)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, "")
}

// fail records err on a submitted form. It reports the status to re-render
// the form with, or false when err is not about the submitted values.
func (f *Form) fail(err error) (int, bool) {
	code := domainerrors.CodeOf(err)
	switch code {
	case domainerrors.CodeInvalidInput,
		domainerrors.CodeDuplicateAccount,
		domainerrors.CodeInvalidCredentials,
		domainerrors.CodeConflict:
	default:
		return 0, false
	}

	f.Errors = domainerrors.Fields(err)
	if f.Errors == nil {
		f.Message = userMessage(err)
	}
	return code.HTTPStatus(), true
}

// userMessage returns the message of a domain error.
func userMessage(err error) string {
	var e *domainerrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
