package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/egcartridge/storefront/internal/domain"
)

// Session is what the shell displays about the signed-in user
type Session struct {
	Authenticated bool                  `json:"authenticated"`
	Kind          domain.CredentialKind `json:"credential"`
	Username      string                `json:"username,omitempty"`
	Email         string                `json:"email,omitempty"`
	Role          domain.Role           `json:"role,omitempty"`
	Subject       string                `json:"subject,omitempty"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	Expired       bool                  `json:"expired"`
}

// Session describes the active identity. Token claims are read without
// verification and are for display only; opaque tokens leave them empty.
func (r *Resolver) Session(ctx context.Context) Session {
	cred := r.Resolve(ctx)
	s := Session{Authenticated: !cred.IsNone(), Kind: cred.Kind}
	if cred.IsNone() {
		s.Kind = domain.CredentialNone
	}

	if user, ok := r.User(ctx); ok {
		s.Username = user.Username
		s.Email = user.Email
		s.Role = user.Role
	}

	if s.Authenticated {
		s.Subject, s.ExpiresAt = tokenClaims(cred.Token)
		if s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now()) {
			s.Expired = true
		}
	}

	return s
}

func tokenClaims(token string) (string, *time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", nil
	}

	subject, _ := claims.GetSubject()
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return subject, nil
	}
	t := exp.Time
	return subject, &t
}
