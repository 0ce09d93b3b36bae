package scoring

import (
	"time"

	"threat-analysis-service/trust"
)

// WhoisDetail is the registration paperwork evidence for a domain.
type WhoisDetail struct {
	Registrar        string `json:"registrar,omitempty"`
	Org              string `json:"org,omitempty"`
	Country          string `json:"country,omitempty"`
	PrivacyProtected bool   `json:"privacy_protected,omitempty"`
}

// SSLDetail is the certificate evidence for a domain.
type SSLDetail struct {
	HasSSL bool   `json:"has_ssl"`
	Valid  bool   `json:"valid"`
	Issuer string `json:"issuer,omitempty"`
}

// DNSDetail is the DNS posture evidence for a domain.
type DNSDetail struct {
	HasMX   bool     `json:"has_mx"`
	HasSPF  bool     `json:"has_spf"`
	HasDKIM bool     `json:"has_dkim"`
	CNAMEs  []string `json:"cnames,omitempty"`
}

// ReputationDetail carries third-party vendor reputation evidence.
type ReputationDetail struct {
	KnownMalicious bool      `json:"known_malicious"`
	VendorScores   []float64 `json:"vendor_scores,omitempty"`
}

// DomainEvidence groups everything known about the domain itself.
// A nil sub-struct means that evidence category was never collected;
// every nil has a documented neutral default in its sub-scorer.
type DomainEvidence struct {
	Domain     string            `json:"domain,omitempty"`
	CreatedAt  *time.Time        `json:"created_at,omitempty"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
	Whois      *WhoisDetail      `json:"whois_data,omitempty"`
	SSL        *SSLDetail        `json:"ssl_data,omitempty"`
	DNS        *DNSDetail        `json:"dns_data,omitempty"`
	Reputation *ReputationDetail `json:"reputation_data,omitempty"`
}

// Judgment is one labeled AI verdict. A nil Confidence means the model
// did not report one; scoring substitutes 0.5.
type Judgment struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
	Details    string   `json:"details,omitempty"`
}

// AIEvidence carries the per-category AI judgments. Repost feeds
// confidence and reporting but carries no scoring weight.
type AIEvidence struct {
	Abuse        *Judgment `json:"abuse_detection,omitempty"`
	Copyright    *Judgment `json:"copyright_risk,omitempty"`
	Commercial   *Judgment `json:"commercial_use,omitempty"`
	Repost       *Judgment `json:"repost_detection,omitempty"`
	Modification *Judgment `json:"content_modification,omitempty"`
}

// SearchEvidence carries search and engagement data points.
type SearchEvidence struct {
	Ranking      *int `json:"ranking,omitempty"`
	TrafficRank  *int `json:"traffic_rank,omitempty"`
	SocialShares *int `json:"social_shares,omitempty"`
}

// ContentEvidence carries page-content data points.
type ContentEvidence struct {
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
	LastUpdated     *time.Time `json:"last_updated,omitempty"`
}

// EvidenceFromSignal converts classification output into scoring
// evidence so the two stages chain without re-collecting anything.
func EvidenceFromSignal(signal *trust.DomainSignal, dns *trust.DNSPosture) DomainEvidence {
	evidence := DomainEvidence{Domain: signal.Domain}

	if reg := signal.Registration; reg != nil {
		evidence.CreatedAt = reg.CreatedAt
		evidence.ExpiresAt = reg.ExpiresAt
		evidence.Whois = &WhoisDetail{
			Registrar: reg.Registrar,
			Org:       reg.Org,
			Country:   reg.Country,
		}
	}
	if cert := signal.Certificate; cert != nil {
		evidence.SSL = &SSLDetail{
			HasSSL: cert.Available,
			Valid:  cert.Available,
			Issuer: cert.Issuer,
		}
	}
	if dns != nil {
		evidence.DNS = &DNSDetail{
			HasMX:   dns.HasMX,
			HasSPF:  dns.HasSPF,
			HasDKIM: dns.HasDKIM,
			CNAMEs:  dns.CNAMEs,
		}
	}
	return evidence
}
