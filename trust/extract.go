package trust

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainParts is a hostname split along public-suffix boundaries.
type DomainParts struct {
	Subdomain   string
	Registrable string
	TLD         string
}

// ExtractDomain reduces a raw URL or bare hostname to its registrable
// domain. This is the only step of classification that can fail hard.
func ExtractDomain(rawURL string) (DomainParts, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return DomainParts{}, &ExtractionError{Input: rawURL, Reason: "empty input"}
	}

	// Bare hostnames are fine; give them a scheme so url.Parse puts
	// them in Host instead of Path.
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return DomainParts{}, &ExtractionError{Input: rawURL, Reason: err.Error()}
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return DomainParts{}, &ExtractionError{Input: rawURL, Reason: "no host component"}
	}

	// Raw IP hosts carry no suffix structure; the lexical patterns
	// downstream flag them instead.
	if net.ParseIP(host) != nil {
		return DomainParts{Registrable: host}, nil
	}

	parts := DomainParts{Registrable: host}

	// Unknown or private suffixes make eTLD+1 fail; fall back to the
	// whole host so classification still has something to work with.
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		parts.Registrable = etld1
	}

	if suffix, _ := publicsuffix.PublicSuffix(host); suffix != host {
		parts.TLD = suffix
	}

	if parts.Registrable != host && strings.HasSuffix(host, "."+parts.Registrable) {
		parts.Subdomain = strings.TrimSuffix(host, "."+parts.Registrable)
	}

	return parts, nil
}
