package scoring

import (
	"strings"
	"time"
)

// Sub-factor weights for the domain trust component.
const (
	weightDomainAge    = 0.30
	weightCertificate  = 0.25
	weightRegistration = 0.20
	weightDNSPosture   = 0.15
	weightReputation   = 0.10
)

// Issuers reputable enough to pull the certificate factor down hard.
var trustedIssuers = []string{
	"let's encrypt",
	"digicert",
	"symantec",
	"comodo",
	"godaddy",
}

// CDN / security providers whose CNAME presence signals managed hosting.
var cdnProviders = []string{
	"cloudflare",
	"akamai",
	"fastly",
	"amazon",
}

// scoreDomainTrust computes the domain trust component on the 0-100
// risk scale (higher = riskier).
func scoreDomainTrust(evidence DomainEvidence, now time.Time) float64 {
	return scoreDomainAge(evidence.CreatedAt, now)*weightDomainAge +
		scoreCertificate(evidence.SSL)*weightCertificate +
		scoreRegistration(evidence, now)*weightRegistration +
		scoreDNSPosture(evidence.DNS)*weightDNSPosture +
		scoreReputation(evidence.Reputation)*weightReputation
}

// Age is the strongest trust signal available: most abuse lives on
// domains registered days ago.
func scoreDomainAge(createdAt *time.Time, now time.Time) float64 {
	if createdAt == nil {
		return 50
	}
	days := now.Sub(*createdAt).Hours() / 24
	switch {
	case days > 5*365:
		return 10
	case days > 2*365:
		return 20
	case days > 365:
		return 40
	case days > 180:
		return 60
	case days > 30:
		return 80
	default:
		return 90
	}
}

func scoreCertificate(ssl *SSLDetail) float64 {
	if ssl == nil {
		return 70
	}
	if !ssl.HasSSL {
		return 80
	}
	if !ssl.Valid {
		return 75
	}
	issuer := strings.ToLower(ssl.Issuer)
	for _, trusted := range trustedIssuers {
		if strings.Contains(issuer, trusted) {
			return 10
		}
	}
	return 30
}

// Registration completeness: published ownership details lower risk,
// privacy shields and imminent expiry raise it.
func scoreRegistration(evidence DomainEvidence, now time.Time) float64 {
	if evidence.Whois == nil {
		return 60
	}

	score := 50.0
	if evidence.Whois.Org != "" {
		score -= 10
	}
	if evidence.Whois.Country != "" {
		score -= 5
	}
	if evidence.Whois.PrivacyProtected {
		score += 15
	}
	if evidence.ExpiresAt != nil {
		daysLeft := evidence.ExpiresAt.Sub(now).Hours() / 24
		if daysLeft > 365 {
			score -= 10
		} else if daysLeft < 30 {
			score += 20
		}
	}
	return clamp(score, 0, 100)
}

// Mail records and managed hosting take effort to set up, which
// throwaway domains rarely spend.
func scoreDNSPosture(dns *DNSDetail) float64 {
	if dns == nil {
		return 50
	}

	score := 50.0
	if dns.HasMX {
		score -= 10
	}
	if dns.HasSPF {
		score -= 5
	}
	if dns.HasDKIM {
		score -= 5
	}
	for _, cname := range dns.CNAMEs {
		if isCDNProvider(cname) {
			score -= 15
			break
		}
	}
	return clamp(score, 0, 100)
}

func isCDNProvider(cname string) bool {
	lower := strings.ToLower(cname)
	for _, provider := range cdnProviders {
		if strings.Contains(lower, provider) {
			return true
		}
	}
	return false
}

func scoreReputation(rep *ReputationDetail) float64 {
	if rep == nil {
		return 50
	}
	if rep.KnownMalicious {
		return 100
	}
	if len(rep.VendorScores) > 0 {
		sum := 0.0
		for _, s := range rep.VendorScores {
			sum += s
		}
		return clamp(sum/float64(len(rep.VendorScores)), 0, 100)
	}
	return 50
}
