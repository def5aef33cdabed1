package cache

import (
	"fmt"
	"sync"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/tidwall/buntdb"
)

// ResourceLoader re-reads a single resource from its source of truth;
// implemented by whatever sits in front of the cache on a miss or a
// refresh event (the catalog package's storage layer).
type ResourceLoader interface {
	LoadResource(id cmn.ID) (*graph.Resource, string, error) // resource, path prefix
}

// Store is the single process-wide cache singleton (spec.md §4.D, §9
// "Global mutable state"). A single RWMutex guards the Go maps;
// buntdb backs the path index so prefix scans (directory-style S3
// listing) don't require walking the whole map, mirroring the
// teacher's cluster.Smap: one version-stamped struct behind one lock,
// with typed accessor methods rather than exposing the maps directly.
type Store struct {
	mu sync.RWMutex

	hwm int64 // high-water mark: highest applied event sequence

	users      map[cmn.ID]*UserRecord
	resources  map[cmn.ID]*resourceEntry
	accessKeys map[string]*AccessKeyRecord
	pubkeys    map[int32]*PubKeyRecord
	rules      map[cmn.ID]*RuleRecord
	bindings   map[cmn.ID][]*RuleBinding // keyed by bound resource id
	bundles    map[cmn.ID]*Bundle
	endpoints  map[cmn.ID]*EndpointRecord

	paths *buntdb.DB // path (string) -> resource id (string)

	loader ResourceLoader
}

func NewStore(loader ResourceLoader) (*Store, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("cache: open path index: %w", err)
	}
	return &Store{
		users:      make(map[cmn.ID]*UserRecord),
		resources:  make(map[cmn.ID]*resourceEntry),
		accessKeys: make(map[string]*AccessKeyRecord),
		pubkeys:    make(map[int32]*PubKeyRecord),
		rules:      make(map[cmn.ID]*RuleRecord),
		bindings:   make(map[cmn.ID][]*RuleBinding),
		bundles:    make(map[cmn.ID]*Bundle),
		endpoints:  make(map[cmn.ID]*EndpointRecord),
		paths:      db,
		loader:     loader,
	}, nil
}

// Close releases the path index. Called once at shutdown through the
// same owning handle that constructed the Store.
func (s *Store) Close() error {
	return s.paths.Close()
}

func (s *Store) HighWaterMark() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hwm
}

// PutResource installs or replaces a cached resource and its path
// prefix, keeping the buntdb path index in sync.
func (s *Store) PutResource(r *graph.Resource, prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = &resourceEntry{resource: r, prefix: prefix}
	_ = s.paths.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(prefix, string(r.ID), nil)
		return err
	})
}

func (s *Store) GetResource(id cmn.ID) (*graph.Resource, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.resources[id]
	if !ok {
		return nil, "", false
	}
	return e.resource, e.prefix, true
}

// ResolvePath returns the resource id whose precomputed prefix exactly
// matches path.
func (s *Store) ResolvePath(path string) (cmn.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var id string
	_ = s.paths.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(path)
		if err != nil {
			return nil
		}
		id = v
		return nil
	})
	if id == "" {
		return "", false
	}
	return cmn.ID(id), true
}

// ListPathPrefix returns every resource id whose path starts with
// prefix, in lexical order — the primitive behind S3 ListObjects-style
// directory listing.
func (s *Store) ListPathPrefix(prefix string) []cmn.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []cmn.ID
	_ = s.paths.View(func(tx *buntdb.Tx) error {
		return tx.AscendGreaterOrEqual("", prefix, func(key, value string) bool {
			if len(key) < len(prefix) || key[:len(prefix)] != prefix {
				return false
			}
			out = append(out, cmn.ID(value))
			return true
		})
	})
	return out
}

func (s *Store) RemoveResource(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.resources[id]
	if !ok {
		return
	}
	delete(s.resources, id)
	_ = s.paths.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(e.prefix)
		return err
	})
}

func (s *Store) PutUser(u *UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetUser(id cmn.ID) (*UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) PutAccessKey(r *AccessKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessKeys[r.AccessKey] = r
}

func (s *Store) GetAccessKey(key string) (*AccessKeyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.accessKeys[key]
	return r, ok
}

func (s *Store) PutPubKey(r *PubKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pubkeys[r.Serial] = r
}

func (s *Store) GetPubKey(serial int32) (*PubKeyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.pubkeys[serial]
	return r, ok
}

func (s *Store) PutRule(r *RuleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
}

func (s *Store) GetRule(id cmn.ID) (*RuleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	return r, ok
}

func (s *Store) PutBinding(b *RuleBinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[b.Target] = append(s.bindings[b.Target], b)
}

// BindingsFor returns the rule bindings that apply to id, cascaded from
// every ancestor in chain (chain is id followed by its ancestors,
// outermost last — see graph.Store.Ancestors). Bindings bound directly
// to id always apply; bindings bound to an ancestor apply only when
// Cascade is set.
func (s *Store) BindingsFor(chain []cmn.ID) []*RuleBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*RuleBinding
	for i, id := range chain {
		for _, b := range s.bindings[id] {
			if i == 0 || b.Cascade {
				out = append(out, b)
			}
		}
	}
	return out
}

func (s *Store) PutBundle(b *Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.ID] = b
}

func (s *Store) GetBundle(id cmn.ID) (*Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[id]
	return b, ok
}

func (s *Store) PutEndpoint(e *EndpointRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[e.ID] = e
}

func (s *Store) GetEndpoint(id cmn.ID) (*EndpointRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.endpoints[id]
	return e, ok
}

func (s *Store) RemoveEndpoint(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, id)
}

// DeleteUser removes a user record (used by catalog's user-delete
// handler); access keys issued for the user are left for an explicit
// revoke so a delete never silently breaks an in-flight credential.
func (s *Store) DeleteUser(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) RemoveAccessKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessKeys, key)
}

func (s *Store) RemoveRule(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
}

// RemoveBinding deletes the binding with the given id from target's
// bound-rule list.
func (s *Store) RemoveBinding(target, bindingID cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.bindings[target][:0:0]
	for _, b := range s.bindings[target] {
		if b.ID != bindingID {
			kept = append(kept, b)
		}
	}
	s.bindings[target] = kept
}
