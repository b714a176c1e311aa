package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
	"github.com/bookbuddyapp/bookbuddy-server/internal/metrics"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// qrSize is the edge length of the profile QR code, in pixels.
const qrSize = 256

// handleProfile renders the user's own profile.
// GET /profile
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	profile, err := s.services.Profiles.GetProfile(r.Context(), user)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "profile", ProfilePage{
		Base:      s.base(w, r, "Your profile"),
		Profile:   profile,
		Own:       true,
		PublicURL: s.publicURL(user),
	})
}

// handlePublicProfile renders another reader's profile. Private profiles
// look the same as missing ones.
// GET /u/{handle}
func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.services.Profiles.GetPublicProfile(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	viewer := session.User(r.Context())
	s.render(w, http.StatusOK, "profile", ProfilePage{
		Base:      s.base(w, r, profile.User.Name()),
		Profile:   profile,
		Own:       viewer != nil && viewer.ID == profile.User.ID,
		PublicURL: s.publicURL(profile.User),
	})
}

// handleEditProfileForm renders the profile form.
// GET /profile/edit
func (s *Server) handleEditProfileForm(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	s.render(w, http.StatusOK, "profile_form", ProfileFormPage{
		Base: s.base(w, r, "Edit profile"),
		Input: service.UpdateProfileRequest{
			DisplayName: user.DisplayName,
			Handle:      user.Handle,
			Bio:         user.Bio,
		},
	})
}

// handleEditProfile saves name, handle and bio.
// POST /profile/edit
func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	req := service.UpdateProfileRequest{
		DisplayName: r.PostFormValue("display_name"),
		Handle:      r.PostFormValue("handle"),
		Bio:         r.PostFormValue("bio"),
	}

	if _, err := s.services.Profiles.UpdateProfile(r.Context(), user, req); err != nil {
		page := ProfileFormPage{Input: req}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Edit profile")
			s.render(w, status, "profile_form", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	s.redirect(w, r, "/profile", FlashSuccess, "Profile updated.")
}

// handleUploadAvatar replaces the user's avatar.
// POST /profile/avatar
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())

	// Leave room for the multipart framing around the image.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxAvatarSize+1<<20)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		message := "Choose an image to upload."
		if errors.As(err, &tooLarge) {
			message = "That image is too large."
		}
		s.redirect(w, r, "/profile/edit", FlashError, message)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxAvatarSize+1))
	if err != nil {
		s.redirect(w, r, "/profile/edit", FlashError, "The upload failed, please try again.")
		return
	}

	if _, err := s.services.Profiles.UploadAvatar(r.Context(), user, data); err != nil {
		var form Form
		if _, ok := form.fail(err); ok {
			message := form.Message
			if m, found := form.Errors["avatar"]; found {
				message = m
			}
			s.redirect(w, r, "/profile/edit", FlashError, message)
			return
		}
		s.handleError(w, r, err)
		return
	}

	s.redirect(w, r, "/profile", FlashSuccess, "Avatar updated.")
}

// handleAvatar serves a user's avatar image.
// GET /avatars/{userID}
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := s.services.Profiles.Avatar(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleUserReviews lists all of the user's reviews.
// GET /profile/reviews?page=
func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	result, err := s.services.Reviews.UserReviews(r.Context(), user.ID, pageParam(r, userReviewsPerPage))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "user_reviews", UserReviewsPage{
		Base:    s.base(w, r, "Your reviews"),
		Reviews: result.Items,
		Pager:   pagerFor(r, result),
	})
}

// handlePasswordForm renders the change password form.
// GET /profile/password
func (s *Server) handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "password", PasswordPage{Base: s.base(w, r, "Change password")})
}

// handleChangePassword replaces the password. Other sessions are signed out.
// POST /profile/password
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := service.ChangePasswordRequest{
		Current: r.PostFormValue("current_password"),
		New:     r.PostFormValue("new_password"),
		Confirm: r.PostFormValue("confirm_password"),
	}

	var currentID string
	if sess := session.Current(ctx); sess != nil {
		currentID = sess.ID
	}

	if err := s.services.Auth.ChangePassword(ctx, session.User(ctx), currentID, req); err != nil {
		var page PasswordPage
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Change password")
			s.render(w, status, "password", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	metrics.RecordAuthEvent("password_change", "success")
	s.redirect(w, r, "/profile", FlashSuccess, "Password changed. Your other sessions were signed out.")
}

// handleSettingsForm renders the preferences form.
// GET /profile/settings
func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	settings, err := s.services.Settings.Get(r.Context(), user.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, "settings", SettingsPage{
		Base:      s.base(w, r, "Settings"),
		Settings:  settings,
		Languages: languages(),
	})
}

// handleUpdateSettings saves preferences.
// POST /profile/settings
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())
	req := service.SettingsUpdate{
		Theme:              r.PostFormValue("theme"),
		Language:           r.PostFormValue("language"),
		PublicProfile:      formBool(r, "public_profile"),
		EmailNotifications: formBool(r, "email_notifications"),
	}

	if _, err := s.services.Settings.Update(r.Context(), user, req); err != nil {
		page := SettingsPage{
			Settings: &domain.UserSettings{
				UserID:             user.ID,
				Theme:              domain.Theme(req.Theme),
				Language:           req.Language,
				PublicProfile:      req.PublicProfile,
				EmailNotifications: req.EmailNotifications,
			},
			Languages: languages(),
		}
		if status, ok := page.fail(err); ok {
			page.Base = s.base(w, r, "Settings")
			s.render(w, status, "settings", page)
			return
		}
		s.handleError(w, r, err)
		return
	}

	s.redirect(w, r, "/profile/settings", FlashSuccess, "Settings saved.")
}

// handleDeleteAccount deletes the account after the password is confirmed.
// POST /profile/delete
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := session.User(r.Context())

	if err := s.services.Auth.DeleteAccount(r.Context(), user, r.PostFormValue("password")); err != nil {
		var form Form
		status, ok := form.fail(err)
		if !ok {
			s.handleError(w, r, err)
			return
		}
		settings, getErr := s.services.Settings.Get(r.Context(), user.ID)
		if getErr != nil {
			s.handleError(w, r, getErr)
			return
		}
		s.render(w, status, "settings", SettingsPage{
			Base:      s.base(w, r, "Settings"),
			Settings:  settings,
			Languages: languages(),
			Delete:    form,
		})
		return
	}

	metrics.RecordAuthEvent("account_delete", "success")
	s.sessions.Clear(w)
	s.redirect(w, r, "/", FlashInfo, "Your account has been deleted.")
}

// handleProfileQR serves a QR code linking to the user's public profile.
// GET /profile/qr.png
func (s *Server) handleProfileQR(w http.ResponseWriter, r *http.Request) {
	link := s.publicURL(session.User(r.Context()))
	if link == "" {
		s.renderStatus(w, r, http.StatusNotFound, "Choose a handle to get a shareable profile link.")
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// publicURL returns the shareable profile link of user, or "" when they
// have no handle.
func (s *Server) publicURL(user *domain.User) string {
	if user == nil || user.Handle == "" {
		return ""
	}
	return s.opts.BaseURL + profilePath(user.Handle)
}
