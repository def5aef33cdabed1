package catalog

import (
	"github.com/nimbusfs/core/permission"
)

// StorageStatus implements spec.md §6 "get_storage_status": a coarse
// health summary any registered caller may read.
type StorageStatus struct {
	Version         string
	ResourceCount   int
	CacheHighWater  int64
	EndpointCount   int
}

func (c *Catalog) GetStorageStatus(authHeader string) (StorageStatus, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return StorageStatus{}, err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return StorageStatus{}, err
	}
	return StorageStatus{
		Version:        Version,
		ResourceCount:  len(c.Graph.AllIDs()),
		CacheHighWater: c.Cache.HighWaterMark(),
		EndpointCount:  len(c.Store.listEndpoints()),
	}, nil
}

// Version is the middle layer's reported build version (spec.md §6
// "get_version"); set at link time in a real build, a fixed literal
// here since this exercise never links a binary.
const Version = "dev"

func (c *Catalog) GetVersion(authHeader string) (string, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return "", err
	}
	if err := c.authorize(id, []permission.Context{permission.Registered()}); err != nil {
		return "", err
	}
	return Version, nil
}

// GetPubkeys implements spec.md §6 "get_pubkeys": every currently
// trusted signing key serial this catalog knows of, so a data proxy can
// refresh its own verification ring (spec.md §4.A "Header carries key
// identifier (serial)").
func (c *Catalog) GetPubkeys(authHeader string) (map[int32][]byte, error) {
	id, err := c.authenticate(authHeader)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(id, []permission.Context{permission.Proxy(), permission.Registered()}); err != nil {
		return nil, err
	}
	out := make(map[int32][]byte)
	for _, ep := range c.Store.listEndpoints() {
		if rec, ok := c.Cache.GetPubKey(ep.PubKeySerial); ok {
			out[rec.Serial] = rec.Key
		}
	}
	return out, nil
}

// Announcements authenticates the caller and returns an empty list: no
// announcement messages are stored or configured anywhere.
func (c *Catalog) Announcements(authHeader string) ([]string, error) {
	if _, err := c.authenticate(authHeader); err != nil {
		return nil, err
	}
	return nil, nil
}
