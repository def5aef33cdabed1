package token

import (
	"crypto/ed25519"
	"sync"
)

// PubKey is a serial-tagged public signing key. Serials let a key be
// rotated without invalidating every previously-issued token: the
// token's JWT header carries the serial that created it (spec.md §4.A
// "Header carries key identifier (serial)").
type PubKey struct {
	Serial int32
	Key    ed25519.PublicKey
	// Owner is the endpoint (or "root") this key belongs to.
	Owner string
}

// Resolver looks up a public key by serial. Implemented by Ring; kept
// as an interface here so token has no dependency on cache.
type Resolver interface {
	ResolvePubKey(serial int32) (PubKey, bool)
}

// Ring is a minimal in-process Resolver, used by both daemon
// entrypoints and by tests. The cache's pubkey table is a separate map
// and is not wired into a Ring.
type Ring struct {
	mu   sync.RWMutex
	keys map[int32]PubKey
}

func NewRing() *Ring { return &Ring{keys: make(map[int32]PubKey)} }

func (r *Ring) Add(pk PubKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[pk.Serial] = pk
}

func (r *Ring) Remove(serial int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, serial)
}

func (r *Ring) ResolvePubKey(serial int32) (PubKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pk, ok := r.keys[serial]
	return pk, ok
}

var _ Resolver = (*Ring)(nil)
