package catalog

import (
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/permission"
)

// CreateLicenseRequest implements spec.md §6 "License" create.
type CreateLicenseRequest struct {
	AuthHeader string
	Owner      string
	Tier       string
	Expires    time.Time
}

func (c *Catalog) CreateLicense(req CreateLicenseRequest) (cmn.ID, error) {
	id, err := c.authenticate(req.AuthHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Admin()}); err != nil {
		return "", err
	}
	owner, err := requireID(req.Owner)
	if err != nil {
		return "", err
	}
	l := &License{ID: cmn.NewID(), Owner: owner, Tier: req.Tier, Expires: req.Expires}
	c.Store.putLicense(l)
	return l.ID, nil
}

// GetLicense implements spec.md §6 "License" get.
func (c *Catalog) GetLicense(authHeader, licenseIDStr string) (*License, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	licenseID, err := requireID(licenseIDStr)
	if err != nil {
		return nil, err
	}
	l, ok := c.Store.getLicense(licenseID)
	if !ok {
		return nil, cmn.ErrNotFound
	}
	if err := c.authorize(id, []permission.Context{permission.Admin(), permission.SelfUser(l.Owner)}); err != nil {
		return nil, err
	}
	return l, nil
}

// ListLicenses implements spec.md §6 "License" list: every license
// owned by the caller.
func (c *Catalog) ListLicenses(authHeader string) ([]*License, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return nil, err
	}
	return c.Store.listLicenses(id.UserID), nil
}
