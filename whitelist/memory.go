package whitelist

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"threat-analysis-service/trust"
)

// MemoryStore keeps whitelist entries in process memory. It is the default
// store when no database is configured and seeds itself with a handful of
// well-known safe domains.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*Entry
	byDomain map[string]string
	order    []string
}

// NewMemoryStore builds a store pre-seeded with the well-known safe domains.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]*Entry),
		byDomain: make(map[string]string),
	}
	now := time.Now().UTC()
	for _, domain := range trust.SafeDomainSuffixes {
		entry := &Entry{
			ID:        uuid.NewString(),
			Domain:    domain,
			AddedBy:   "system",
			Notes:     "well-known safe domain",
			CreatedAt: now,
		}
		s.byID[entry.ID] = entry
		s.byDomain[entry.Domain] = entry.ID
		s.order = append(s.order, entry.ID)
	}
	return s
}

func (s *MemoryStore) IsMember(ctx context.Context, domain string) bool {
	d := NormalizeDomain(domain)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byDomain[d]
	return ok
}

func (s *MemoryStore) Add(ctx context.Context, domain, addedBy, notes string) (*Entry, error) {
	d, err := normalizeAndValidate(domain)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDomain[d]; ok {
		return nil, ErrDuplicate
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Domain:    d,
		AddedBy:   addedBy,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	s.byID[entry.ID] = entry
	s.byDomain[d] = entry.ID
	s.order = append(s.order, entry.ID)

	out := *entry
	return &out, nil
}

func (s *MemoryStore) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	delete(s.byDomain, entry.Domain)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	out := *entry
	return &out, true
}

// List returns entries in insertion order along with the total count.
func (s *MemoryStore) List(ctx context.Context, offset, limit int) ([]Entry, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= total {
		return []Entry{}, total
	}
	end := min(offset+limit, total)

	entries := make([]Entry, 0, end-offset)
	for _, id := range s.order[offset:end] {
		entries = append(entries, *s.byID[id])
	}
	return entries, total
}
