package trust

import (
	"fmt"
	"time"
)

// ThreatLevel is the ordinal risk category attached to a domain or an
// assessment. SAFE < LOW < MEDIUM < HIGH; UNKNOWN is reserved for
// scoring failure states and never comes out of classification.
type ThreatLevel string

const (
	LevelSafe    ThreatLevel = "SAFE"
	LevelLow     ThreatLevel = "LOW"
	LevelMedium  ThreatLevel = "MEDIUM"
	LevelHigh    ThreatLevel = "HIGH"
	LevelUnknown ThreatLevel = "UNKNOWN"
)

var levelRank = map[ThreatLevel]int{
	LevelSafe:   0,
	LevelLow:    1,
	LevelMedium: 2,
	LevelHigh:   3,
}

// Rank returns the ordinal position of the level. UNKNOWN ranks below
// SAFE so it never wins a MaxLevel comparison.
func (l ThreatLevel) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

// MaxLevel returns the higher of two levels. Levels never downgrade:
// combining evidence can only hold or raise the level.
func MaxLevel(a, b ThreatLevel) ThreatLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RegistrationInfo is the evidence gathered from a whois lookup.
// Fields the registry did not publish stay zero.
type RegistrationInfo struct {
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Registrar   string     `json:"registrar,omitempty"`
	Org         string     `json:"org,omitempty"`
	Country     string     `json:"country,omitempty"`
	NameServers []string   `json:"name_servers,omitempty"`
	Status      []string   `json:"status,omitempty"`
}

// AgeDays returns whole days since registration, or -1 when the
// creation date is unknown.
func (r *RegistrationInfo) AgeDays(now time.Time) int {
	if r == nil || r.CreatedAt == nil {
		return -1
	}
	return int(now.Sub(*r.CreatedAt).Hours() / 24)
}

// CertificateInfo is the evidence gathered from a TLS handshake with
// the domain. Available is false when no verifiable certificate was
// presented; Error carries the handshake failure, if any.
type CertificateInfo struct {
	Available bool       `json:"available"`
	Issuer    string     `json:"issuer,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	NotBefore *time.Time `json:"not_before,omitempty"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// DomainSignal is the result of classifying one URL. It is created
// fresh per call and never mutated after return.
//
// When IsWhitelisted is true the level is SAFE with confidence 1.0 and
// no other evidence was gathered.
type DomainSignal struct {
	Domain        string            `json:"domain"`
	Subdomain     string            `json:"subdomain,omitempty"`
	TLD           string            `json:"tld,omitempty"`
	IsWhitelisted bool              `json:"is_whitelisted"`
	Registration  *RegistrationInfo `json:"registration_info,omitempty"`
	Certificate   *CertificateInfo  `json:"certificate_info,omitempty"`
	ThreatLevel   ThreatLevel       `json:"threat_level"`
	Confidence    float64           `json:"confidence"`
	Timestamp     time.Time         `json:"timestamp"`
	ErrorMessage  string            `json:"error_message,omitempty"`
}

// ExtractionError reports input that cannot be reduced to a host. It
// is the only hard failure Classify returns; every other problem
// degrades into the signal itself.
type ExtractionError struct {
	Input  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract domain from %q: %s", e.Input, e.Reason)
}
