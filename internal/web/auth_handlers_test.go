package web

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	site := setupSite(t, Options{})

	t.Run("creates account and signs in", func(t *testing.T) {
		b := site.browser(t)
		b.signup("ada@example.com")

		page := b.get("/profile")
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), "Reader ada")
	})

	t.Run("welcome flash shows once", func(t *testing.T) {
		b := site.browser(t)
		b.signup("flash@example.com")

		first := b.get("/books")
		assert.Contains(t, first.Body.String(), "Welcome to BookBuddy")
		second := b.get("/books")
		assert.NotContains(t, second.Body.String(), "Welcome to BookBuddy")
	})

	t.Run("invalid input re-renders the form", func(t *testing.T) {
		b := site.browser(t)
		rec := b.post("/signup", url.Values{"email": {"kept@example.com"}, "password": {"short"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="kept@example.com"`)
		assert.Contains(t, rec.Body.String(), `class="error"`)
		assert.NotContains(t, b.cookies, "bookbuddy_session")
	})

	t.Run("duplicate email", func(t *testing.T) {
		site.browser(t).signup("twice@example.com")

		rec := site.browser(t).post("/signup", url.Values{"email": {"twice@example.com"}, "password": {testPassword}})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already exists")
	})

	t.Run("signed in users skip the form", func(t *testing.T) {
		b := site.browser(t)
		b.signup("skip@example.com")

		rec := b.get("/signup")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/books", rec.Header().Get("Location"))
	})
}

func TestLogin(t *testing.T) {
	site := setupSite(t, Options{})
	site.browser(t).signup("login@example.com")

	t.Run("success redirects to next", func(t *testing.T) {
		b := site.browser(t)
		rec := b.post("/login", url.Values{
			"email":    {"LOGIN@example.com"},
			"password": {testPassword},
			"next":     {"/favourites"},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/favourites", rec.Header().Get("Location"))
		assert.Contains(t, b.cookies, "bookbuddy_session")
	})

	t.Run("external next is ignored", func(t *testing.T) {
		rec := site.browser(t).post("/login", url.Values{
			"email":    {"login@example.com"},
			"password": {testPassword},
			"next":     {"//evil.example.com/"},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/books", rec.Header().Get("Location"))
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := site.browser(t).post("/login", url.Values{"email": {"login@example.com"}, "password": {"nope nope 1"}})
		unknown := site.browser(t).post("/login", url.Values{"email": {"ghost@example.com"}, "password": {"nope nope 1"}})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Contains(t, wrong.Body.String(), "invalid email or password")
		assert.Contains(t, unknown.Body.String(), "invalid email or password")
	})

	t.Run("form keeps next", func(t *testing.T) {
		rec := site.browser(t).get("/login?next=%2Fhistory")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="next" value="/history"`)
	})
}

func TestLogout(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)
	b.signup("bye@example.com")

	rec := b.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, b.cookies, "bookbuddy_session")

	// Logging out again is harmless.
	rec = b.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/profile")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRequireUser_RedirectsToLogin(t *testing.T) {
	site := setupSite(t, Options{})
	b := site.browser(t)

	rec := b.get("/favourites?q=austen")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/favourites?q=austen"), rec.Header().Get("Location"))

	rec = b.post("/books/book-123/favourite", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?next="))
}

func TestPasswordResetFlow(t *testing.T) {
	site := setupSite(t, Options{})
	owner := site.browser(t)
	owner.signup("forgetful@example.com")

	b := site.browser(t)
	rec := b.post("/password-reset", url.Values{"email": {"forgetful@example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If an account exists")

	var token string
	for _, field := range strings.Fields(site.mailer.last().Text) {
		if rest, ok := strings.CutPrefix(field, testBaseURL+"/password-reset/"); ok {
			token = rest
		}
	}
	require.NotEmpty(t, token)

	rec = b.get("/password-reset/" + token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirm_password"`)

	rec = b.post("/password-reset/"+token, url.Values{"password": {"brand new 99"}, "confirm_password": {"different 99"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.post("/password-reset/"+token, url.Values{"password": {"brand new 99"}, "confirm_password": {"brand new 99"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The old session was revoked and the link is spent.
	assert.Equal(t, http.StatusSeeOther, owner.get("/profile").Code)
	rec = b.get("/password-reset/" + token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.post("/login", url.Values{"email": {"forgetful@example.com"}, "password": {"brand new 99"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPasswordReset_UnknownEmailLooksSent(t *testing.T) {
	site := setupSite(t, Options{})

	rec := site.browser(t).post("/password-reset", url.Values{"email": {"nobody@example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If an account exists")
	assert.Empty(t, site.mailer.last().To)
}

func TestPasswordReset_GarbageToken(t *testing.T) {
	site := setupSite(t, Options{})

	rec := site.browser(t).get("/password-reset/not-a-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request a new link")
}

func TestAuthRateLimit(t *testing.T) {
	site := setupSite(t, Options{AuthRatePerMin: 1, AuthBurst: 2})
	form := url.Values{"email": {"x@example.com"}, "password": {"whatever 1"}}

	b := site.browser(t)
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", form).Code)
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", form).Code)

	rec := b.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Pages are not limited.
	assert.Equal(t, http.StatusOK, b.get("/login").Code)
}

func loginFrom(b *browser, remoteAddr string, forwardedFor ...string) int {
	form := url.Values{"email": {"x@example.com"}, "password": {"whatever 1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remoteAddr
	for _, hop := range forwardedFor {
		req.Header.Add("X-Forwarded-For", hop)
	}
	return b.do(req).Code
}

func TestAuthRateLimit_IgnoresForwardedForFromClients(t *testing.T) {
	site := setupSite(t, Options{AuthRatePerMin: 1, AuthBurst: 1})
	b := site.browser(t)

	assert.Equal(t, http.StatusUnauthorized, loginFrom(b, "203.0.113.7:5000", "10.0.0.1"))
	for i := 2; i <= 5; i++ {
		code := loginFrom(b, "203.0.113.7:5000", "10.0.0."+strconv.Itoa(i))
		assert.Equal(t, http.StatusTooManyRequests, code, "attempt %d", i)
	}
}

func TestAuthRateLimit_TrustedProxy(t *testing.T) {
	site := setupSite(t, Options{
		AuthRatePerMin: 1,
		AuthBurst:      1,
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.1.0.0/16")},
	})
	b := site.browser(t)
	proxy := "10.1.2.3:443"

	assert.Equal(t, http.StatusUnauthorized, loginFrom(b, proxy, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(b, proxy, "198.51.100.1"))

	// Another client behind the same proxy has its own bucket.
	assert.Equal(t, http.StatusUnauthorized, loginFrom(b, proxy, "198.51.100.2"))

	// Entries the client adds in front of the proxy's own are not believed.
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(b, proxy, "203.0.113.99, 198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(b, proxy, "203.0.113.98", "198.51.100.1, 10.1.9.9"))
}
