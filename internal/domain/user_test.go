package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Name(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"display name wins", User{DisplayName: "Ada", Handle: "@ada", Email: "ada@example.com"}, "Ada"},
		{"handle fallback", User{Handle: "@ada", Email: "ada@example.com"}, "@ada"},
		{"email local part", User{Email: "ada@example.com"}, "ada"},
		{"default", User{}, DefaultDisplayName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Name())
		})
	}
}

func TestUser_MarkDeleted(t *testing.T) {
	u := &User{}
	assert.False(t, u.IsDeleted())

	u.MarkDeleted()

	assert.True(t, u.IsDeleted())
	assert.Equal(t, *u.DeletedAt, u.UpdatedAt)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"reader", "@reader"},
		{"@Reader", "@reader"},
		{"@@reader ", "@reader"},
		{"  ", ""},
		{"@", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHandle(tt.in), tt.in)
	}
}
