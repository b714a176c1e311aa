package api

import (
	"context"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/http/session"
)

// requireUser returns the signed-in user or a 401 envelope. The session
// middleware in front of the API resolves the cookie.
func (s *Server) requireUser(ctx context.Context) (*domain.User, error) {
	user, err := session.RequireUser(ctx)
	if err != nil {
		return nil, s.fail("require user", err)
	}
	return user, nil
}
