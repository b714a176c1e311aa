package validation_test

import (
	"strings"
	"testing"

	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,password"`
	Handle   string `json:"handle" validate:"omitempty,handle"`
	Bio      string `json:"bio" validate:"maxrunes=5"`
}

type bookRequest struct {
	Title string `json:"title" validate:"required,max=10"`
	Genre string `json:"genre" validate:"genre"`
	Year  int    `json:"year" validate:"omitempty,gte=0,lte=2100"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{
		Email:    "test@example.com",
		Password: "password123",
		Handle:   "@reader_1",
		Bio:      "héllo",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"missing email", signupRequest{Password: "password123"}, "email", "is required"},
		{"invalid email", signupRequest{Email: "nope", Password: "password123"}, "email", "valid email"},
		{"short password", signupRequest{Email: "a@b.co", Password: "ab1"}, "password", "at least 8"},
		{"letters only", signupRequest{Email: "a@b.co", Password: "passwordonly"}, "password", "one letter and one digit"},
		{"bad handle", signupRequest{Email: "a@b.co", Password: "password123", Handle: "@x"}, "handle", "3 to 30"},
		{"long bio", signupRequest{Email: "a@b.co", Password: "password123", Bio: "ééééééé"}, "bio", "exceed 5"},
		{"long title", bookRequest{Title: strings.Repeat("x", 11), Genre: "Horror"}, "title", "exceed 10"},
		{"unknown genre", bookRequest{Title: "x", Genre: "Poetry"}, "genre", "listed genres"},
		{"year range", bookRequest{Title: "x", Genre: "Other", Year: 3000}, "year", "less than or equal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidInput))

			fields := domainerrors.Fields(err)
			require.Contains(t, fields, tt.wantField)
			assert.Contains(t, fields[tt.wantField], tt.wantMsg)
		})
	}
}

func TestPasswordPolicy(t *testing.T) {
	assert.Empty(t, validation.PasswordPolicy("correct horse 9"))
	assert.NotEmpty(t, validation.PasswordPolicy("12345678"))
	assert.NotEmpty(t, validation.PasswordPolicy(strings.Repeat("a1", 513)))
	assert.Empty(t, validation.PasswordPolicy(strings.Repeat("a1", 512)))
}
