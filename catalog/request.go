package catalog

import (
	"strings"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// Identity is what every handler resolves the bearer token into before
// running its own authorization and validation (spec.md §4.E steps
// 1-2).
type Identity struct {
	UserID        cmn.ID
	TokenID       *string
	IsGlobalAdmin bool
	perm          *permission.User
}

// extractBearer pulls the token out of "Authorization: Bearer <token>",
// matching spec.md §6 "Token header placement".
func extractBearer(authHeader string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", cmn.ErrUnauthenticated
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if raw == "" {
		return "", cmn.ErrUnauthenticated
	}
	return raw, nil
}

// authenticate implements spec.md §4.E step 1: extract the bearer
// token, reject if absent or malformed, and resolve it to a caller
// identity via token.Signer.CheckPermissions (spec.md §4.A).
func (c *Catalog) authenticate(authHeader string) (Identity, error) {
	raw, err := extractBearer(authHeader)
	if err != nil {
		return Identity{}, err
	}
	userID, tokenID, _, err := c.Signer.CheckPermissions(raw)
	if err != nil {
		return Identity{}, err
	}
	rec, _ := c.Cache.GetUser(userID)
	id := Identity{UserID: userID, TokenID: tokenID}
	if rec != nil {
		id.IsGlobalAdmin = rec.IsAdmin
		id.perm = &permission.User{ID: userID, ServiceAccount: rec.ServiceAccount, ResourcePerms: rec.ResourcePerms}
	} else {
		id.perm = &permission.User{ID: userID}
	}
	return id, nil
}

// authorize runs spec.md §4.E step 2: the request succeeds if any
// Context the handler composed is satisfied.
func (c *Catalog) authorize(id Identity, contexts []permission.Context) error {
	return c.Perms.CheckContexts(id.perm, id.IsGlobalAdmin, contexts)
}

// requireID validates an identifier is a well-formed ULID (spec.md §4.E
// step 3 "ULID form").
func requireID(s string) (cmn.ID, error) {
	return cmn.ParseID(s)
}

func requireNonEmpty(field, s string) error {
	if s == "" {
		return cmn.NewErrorf(cmn.KindInvalidArgument, "%s must not be empty", field)
	}
	return nil
}
