// Package whitelist maintains the set of domains that bypass threat
// classification. Entries live either in process memory or in Postgres;
// membership is checked on the hot path of every classification.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrDuplicate is returned by Add when the domain is already whitelisted.
var ErrDuplicate = errors.New("domain already whitelisted")

var domainPattern = regexp.MustCompile(`^[a-z0-9.-]+$`)

// Entry is a single whitelisted domain.
type Entry struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	AddedBy   string    `json:"added_by"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract for whitelist entries. IsMember runs
// for every classification; the remaining methods back the management API.
type Store interface {
	IsMember(ctx context.Context, domain string) bool
	Add(ctx context.Context, domain, addedBy, notes string) (*Entry, error)
	Remove(ctx context.Context, id string) bool
	Get(ctx context.Context, id string) (*Entry, bool)
	List(ctx context.Context, offset, limit int) ([]Entry, int)
}

// NormalizeDomain lowercases a domain and strips surrounding whitespace.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// ValidateDomain checks a normalized domain before it is stored.
func ValidateDomain(domain string) error {
	if domain == "" {
		return errors.New("domain is empty")
	}
	if !domainPattern.MatchString(domain) {
		return fmt.Errorf("domain %q contains invalid characters", domain)
	}
	if strings.Contains(domain, "..") {
		return fmt.Errorf("domain %q contains consecutive dots", domain)
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("domain %q starts or ends with a dot", domain)
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return fmt.Errorf("domain %q starts or ends with a hyphen", domain)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain %q has no dot", domain)
	}
	return nil
}

func normalizeAndValidate(domain string) (string, error) {
	d := NormalizeDomain(domain)
	if err := ValidateDomain(d); err != nil {
		return "", err
	}
	return d, nil
}
