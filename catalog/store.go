package catalog

import (
	"sync"

	"github.com/nimbusfs/core/cmn"
)

// Store is the authoritative record keeper for everything the resource
// graph doesn't already own: users, rules, bindings, hooks, endpoints,
// bundles, licenses. graph.Store plays this role for resources
// themselves (see its own doc comment); Store plays it for the rest of
// spec.md §3's data model. Both stand in for "a transactional key/row
// store" (spec.md §1 Out of scope) — every mutating method here takes
// the single mutex for its whole body, so the method call itself is
// the transaction.
type Store struct {
	mu        sync.RWMutex
	users     map[cmn.ID]*User
	rules     map[cmn.ID]*Rule
	bindings  map[cmn.ID]*RuleBinding
	hooks     map[cmn.ID][]*Hook // keyed by Target
	endpoints map[cmn.ID]*Endpoint
	bundles   map[cmn.ID]*Bundle
	licenses  map[cmn.ID]*License
}

// Bundle is the authoritative record behind cache.Bundle.
type Bundle struct {
	ID        cmn.ID
	Owner     cmn.ID
	ObjectIDs []cmn.ID
}

func NewStore() *Store {
	return &Store{
		users:     make(map[cmn.ID]*User),
		rules:     make(map[cmn.ID]*Rule),
		bindings:  make(map[cmn.ID]*RuleBinding),
		hooks:     make(map[cmn.ID][]*Hook),
		endpoints: make(map[cmn.ID]*Endpoint),
		bundles:   make(map[cmn.ID]*Bundle),
		licenses:  make(map[cmn.ID]*License),
	}
}

func (s *Store) putUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) getUser(id cmn.ID) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) allUsers() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *Store) deleteUser(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) putRule(r *Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
}

func (s *Store) getRule(id cmn.ID) (*Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	return r, ok
}

func (s *Store) deleteRule(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
}

func (s *Store) listRules(owner cmn.ID, includePublic bool) []*Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Rule
	for _, r := range s.rules {
		if r.Owner == owner || (includePublic && r.Public) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) putBinding(b *RuleBinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[b.ID] = b
}

func (s *Store) getBinding(id cmn.ID) (*RuleBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[id]
	return b, ok
}

func (s *Store) deleteBinding(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, id)
}

func (s *Store) addHook(h *Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[h.Target] = append(s.hooks[h.Target], h)
}

func (s *Store) hooksFor(target cmn.ID) []*Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Hook, len(s.hooks[target]))
	copy(out, s.hooks[target])
	return out
}

func (s *Store) deleteHook(target, id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.hooks[target][:0:0]
	for _, h := range s.hooks[target] {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	s.hooks[target] = kept
}

func (s *Store) putEndpoint(e *Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[e.ID] = e
}

func (s *Store) getEndpoint(id cmn.ID) (*Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.endpoints[id]
	return e, ok
}

func (s *Store) deleteEndpoint(id cmn.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, id)
}

func (s *Store) listEndpoints() []*Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Endpoint, 0, len(s.endpoints))
	for _, e := range s.endpoints {
		out = append(out, e)
	}
	return out
}

func (s *Store) putBundle(b *Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.ID] = b
}

func (s *Store) getBundle(id cmn.ID) (*Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[id]
	return b, ok
}

func (s *Store) putLicense(l *License) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.licenses[l.ID] = l
}

func (s *Store) getLicense(id cmn.ID) (*License, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.licenses[id]
	return l, ok
}

func (s *Store) listLicenses(owner cmn.ID) []*License {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*License
	for _, l := range s.licenses {
		if l.Owner == owner {
			out = append(out, l)
		}
	}
	return out
}
