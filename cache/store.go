package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/relab/fbas/topology"
)

// store holds cache entries by topology digest.
type store interface {
	// get returns the entry and marks it as recently used.
	get(key topology.Digest) (*entry, bool)
	// peek returns the entry without updating its recency.
	peek(key topology.Digest) (*entry, bool)
	add(key topology.Digest, e *entry)
	len() int
	purge()
}

// mapStore never evicts.
type mapStore map[topology.Digest]*entry

func newMapStore() mapStore {
	return make(mapStore)
}

func (s mapStore) get(key topology.Digest) (*entry, bool) {
	e, ok := s[key]
	return e, ok
}

func (s mapStore) peek(key topology.Digest) (*entry, bool) {
	return s.get(key)
}

func (s mapStore) add(key topology.Digest, e *entry) {
	s[key] = e
}

func (s mapStore) len() int {
	return len(s)
}

func (s mapStore) purge() {
	clear(s)
}

// lruStore evicts the least recently used entry when full.
type lruStore struct {
	cache *lru.Cache
}

func newLRUStore(size int) (*lruStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &lruStore{cache: c}, nil
}

func (s *lruStore) get(key topology.Digest) (*entry, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (s *lruStore) peek(key topology.Digest) (*entry, bool) {
	v, ok := s.cache.Peek(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (s *lruStore) add(key topology.Digest, e *entry) {
	s.cache.Add(key, e)
}

func (s *lruStore) len() int {
	return s.cache.Len()
}

func (s *lruStore) purge() {
	s.cache.Purge()
}
