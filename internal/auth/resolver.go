package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/localstore"
	"github.com/egcartridge/storefront/pkg/errors"
)

// credentialKeys are every key that may hold a bearer token, plus the user record
var credentialKeys = []string{localstore.KeyToken, localstore.KeyDistributorToken, localstore.KeyUser}

type Resolver struct {
	store  *localstore.Store
	bus    *events.Bus
	logger *zap.Logger
}

// NewResolver creates a resolver reading credentials from the local store
func NewResolver(store *localstore.Store, bus *events.Bus, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// Resolve returns the active credential. A distributor record selects the
// distributor token, anything else the default user token.
func (r *Resolver) Resolve(ctx context.Context) domain.Credential {
	user, _ := r.User(ctx)

	key, kind := localstore.KeyToken, domain.CredentialUser
	if user != nil && user.Role == domain.RoleDistributor {
		key, kind = localstore.KeyDistributorToken, domain.CredentialDistributor
	}

	token, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Failed to read token, continuing as guest", zap.String("key", key), zap.Error(err))
		return domain.None
	}
	tok := strings.TrimSpace(string(token))
	if !ok || tok == "" {
		return domain.None
	}

	return domain.Credential{Kind: kind, Token: tok}
}

func (r *Resolver) IsAuthenticated(ctx context.Context) bool {
	return !r.Resolve(ctx).IsNone()
}

// User returns the stored user record, or false when there is none or it is malformed
func (r *Resolver) User(ctx context.Context) (*domain.UserRecord, bool) {
	var user domain.UserRecord
	ok, err := r.store.GetJSON(ctx, localstore.KeyUser, &user)
	if err != nil {
		r.logger.Warn("Ignoring malformed user record", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &user, true
}

// Login stores the user record and the token under the key for its role
func (r *Resolver) Login(ctx context.Context, user domain.UserRecord, token string) (domain.Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.None, &errors.ErrValidation{Field: "token", Message: "token is required"}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	key := localstore.KeyToken
	if user.Role == domain.RoleDistributor {
		key = localstore.KeyDistributorToken
	}

	if err := r.store.SetJSON(ctx, localstore.KeyUser, user); err != nil {
		return domain.None, err
	}
	if err := r.store.Set(ctx, key, []byte(token)); err != nil {
		return domain.None, err
	}

	r.logger.Info("User signed in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	r.bus.Publish(events.SessionChanged)

	return r.Resolve(ctx), nil
}

// Logout removes every credential key and the user record in one store operation
func (r *Resolver) Logout(ctx context.Context) error {
	if err := r.store.Delete(ctx, credentialKeys...); err != nil {
		return err
	}
	r.bus.Publish(events.SessionChanged)
	return nil
}
