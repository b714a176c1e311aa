package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const flashCookie = "bookbuddy_flash"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next page the user sees.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// flashes stores Flash values in a signed cookie.
type flashes struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func newFlashes(hashKey []byte, secure bool) *flashes {
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(300)
	return &flashes{codec: codec, secure: secure}
}

// Set queues a message for the next request.
func (f *flashes) Set(w http.ResponseWriter, kind, message string) {
	value, err := f.codec.Encode(flashCookie, Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the queued message, if any, and clears it. Tampered or
// expired cookies are dropped silently.
func (f *flashes) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	var flash Flash
	if err := f.codec.Decode(flashCookie, cookie.Value, &flash); err != nil {
		return nil
	}
	return &flash
}
