package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

func TestProfile(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("ada@example.com")

	rec := b.get("/profile")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reader ada")
	assert.Contains(t, rec.Body.String(), ">RA</span>")
	assert.Contains(t, rec.Body.String(), "background-color: #")
	assert.NotContains(t, rec.Body.String(), "Share your profile")

	t.Run("edit", func(t *testing.T) {
		rec := b.post("/profile/edit", url.Values{
			"display_name": {"Ada Lovelace"},
			"handle":       {"Ada_L"},
			"bio":          {"Reads everything twice."},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		page := b.follow(rec)
		body := page.Body.String()
		assert.Contains(t, body, "Ada Lovelace")
		assert.Contains(t, body, "@ada_l")
		assert.Contains(t, body, testBaseURL+"/u/ada_l")
		assert.Contains(t, body, "Profile updated.")
	})

	t.Run("invalid handle", func(t *testing.T) {
		rec := b.post("/profile/edit", url.Values{"display_name": {"Ada"}, "handle": {"@x"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="error"`)
	})

	t.Run("taken handle", func(t *testing.T) {
		other := site.browser(t)
		other.signup("grace@example.com")
		rec := other.post("/profile/edit", url.Values{"display_name": {"Grace"}, "handle": {"ada_l"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "is already taken")
	})

	t.Run("public profile", func(t *testing.T) {
		rec := site.browser(t).get("/u/ada_l")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Reads everything twice.")
		assert.NotContains(t, rec.Body.String(), "Edit profile")

		assert.Equal(t, http.StatusNotFound, site.browser(t).get("/u/nobody_here").Code)
	})

	t.Run("private profile is hidden", func(t *testing.T) {
		rec := b.post("/profile/settings", url.Values{"theme": {"dark"}, "language": {"en"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		assert.Equal(t, http.StatusNotFound, site.browser(t).get("/u/ada_l").Code)
		assert.Contains(t, b.get("/profile").Body.String(), "Your profile is private")
	})
}

func TestProfileQR(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("qr@example.com")

	assert.Equal(t, http.StatusNotFound, b.get("/profile/qr.png").Code)

	b.post("/profile/edit", url.Values{"display_name": {"QR"}, "handle": {"qr_reader"}})
	rec := b.get("/profile/qr.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestSettings(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("prefs@example.com")

	rec := b.get("/profile/settings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-theme="light"`)

	rec = b.post("/profile/settings", url.Values{
		"theme":               {"dark"},
		"language":            {"Español"},
		"public_profile":      {"on"},
		"email_notifications": {"on"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	page := b.follow(rec)
	assert.Contains(t, page.Body.String(), `data-theme="dark"`)
	assert.Contains(t, page.Body.String(), `<option value="es" selected>`)
	assert.Contains(t, page.Body.String(), "Settings saved.")

	rec = b.post("/profile/settings", url.Values{"theme": {"sepia"}, "language": {"en"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("pw@example.com")

	rec := b.post("/profile/password", url.Values{
		"current_password": {"not my password"},
		"new_password":     {"a brand new secret"},
		"confirm_password": {"a brand new secret"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.post("/profile/password", url.Values{
		"current_password": {testPassword},
		"new_password":     {"a brand new secret"},
		"confirm_password": {"a brand new secret"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusOK, b.get("/profile").Code)

	fresh := site.browser(t)
	rec = fresh.post("/login", url.Values{"email": {"pw@example.com"}, "password": {"a brand new secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAvatarUpload(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("face@example.com")

	rec := b.do(avatarRequest(t, testPNG(t)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile", rec.Header().Get("Location"))

	profile := b.get("/profile").Body.String()
	require.Contains(t, profile, `src="/avatars/`)

	result, err := site.services.Auth.Login(t.Context(), service.LoginRequest{
		Email:    "face@example.com",
		Password: testPassword,
	}, service.ClientInfo{})
	require.NoError(t, err)

	avatar := site.browser(t).get("/avatars/" + result.User.ID)
	assert.Equal(t, http.StatusOK, avatar.Code)
	assert.Equal(t, "image/jpeg", avatar.Header().Get("Content-Type"))

	t.Run("rejects non-images", func(t *testing.T) {
		rec := b.do(avatarRequest(t, []byte("definitely not an image")))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile/edit", rec.Header().Get("Location"))
		assert.Contains(t, b.get("/profile/edit").Body.String(), `class="flash flash-error"`)
	})
}

func TestDeleteAccount(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("gone@example.com")

	rec := b.post("/profile/delete", url.Values{"password": {"wrong password"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "is incorrect")

	rec = b.post("/profile/delete", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, b.cookies, "bookbuddy_session")

	rec = site.browser(t).post("/login", url.Values{"email": {"gone@example.com"}, "password": {testPassword}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func avatarRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
