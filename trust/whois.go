package trust

import (
	"fmt"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
)

// RegistrationLookup resolves registration evidence for a registrable
// domain. Implementations own their network timeouts.
type RegistrationLookup interface {
	Lookup(domain string) (*RegistrationInfo, error)
}

// WhoisLookup queries public whois servers and parses the response.
type WhoisLookup struct {
	client *whois.Client
}

func NewWhoisLookup(timeout time.Duration) *WhoisLookup {
	return &WhoisLookup{client: whois.NewClient().SetTimeout(timeout)}
}

// Registries disagree wildly on date formats; these cover the common ones.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

func (w *WhoisLookup) Lookup(domain string) (*RegistrationInfo, error) {
	raw, err := w.client.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois query for %s: %w", domain, err)
	}

	p, err := parser.Parse(raw)
	if err != nil || p.Domain == nil {
		// Registries rarely hold records below the registrable level,
		// so retry the parent (e.g. e.sellwithemail.online -> sellwithemail.online)
		parts := strings.Split(domain, ".")
		if len(parts) > 2 {
			return w.Lookup(strings.Join(parts[1:], "."))
		}
		if err != nil {
			return nil, fmt.Errorf("whois parse for %s: %w", domain, err)
		}
		return nil, fmt.Errorf("whois record for %s has no domain section", domain)
	}

	info := &RegistrationInfo{
		CreatedAt:   parseWhoisDate(p.Domain.CreatedDate),
		ExpiresAt:   parseWhoisDate(p.Domain.ExpirationDate),
		NameServers: p.Domain.NameServers,
		Status:      p.Domain.Status,
	}
	if p.Registrar != nil {
		info.Registrar = p.Registrar.Name
	}
	if p.Registrant != nil {
		info.Org = p.Registrant.Organization
		info.Country = p.Registrant.Country
	}
	return info, nil
}

func parseWhoisDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
