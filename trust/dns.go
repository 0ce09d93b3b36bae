package trust

import (
	"net"
	"strings"
)

// Common DKIM selectors probed when the domain publishes no hint.
var dkimSelectors = []string{"default", "google", "selector1", "selector2", "k1"}

// DNSPosture captures mail and CDN related DNS evidence for a domain.
type DNSPosture struct {
	HasMX       bool     `json:"has_mx"`
	HasSPF      bool     `json:"has_spf"`
	HasDKIM     bool     `json:"has_dkim"`
	HasDMARC    bool     `json:"has_dmarc"`
	SPFRecord   string   `json:"spf_record,omitempty"`
	DMARCRecord string   `json:"dmarc_record,omitempty"`
	CNAMEs      []string `json:"cnames,omitempty"`
}

// ProbeDNS gathers DNS posture for a domain. Lookup failures read as
// absent records; the probe itself never fails.
func ProbeDNS(domain string) DNSPosture {
	posture := DNSPosture{}

	// -------------------------
	// MX CHECK
	// -------------------------
	mxRecords, err := net.LookupMX(domain)
	if err == nil && len(mxRecords) > 0 {
		posture.HasMX = true
	}

	// -------------------------
	// SPF CHECK (TXT record)
	// -------------------------
	txts, _ := net.LookupTXT(domain)
	for _, t := range txts {
		if strings.HasPrefix(strings.ToLower(t), "v=spf1") {
			posture.HasSPF = true
			posture.SPFRecord = t
		}
	}

	// -------------------------
	// DKIM CHECK (selector._domainkey.domain)
	// -------------------------
	for _, selector := range dkimSelectors {
		records, _ := net.LookupTXT(selector + "._domainkey." + domain)
		for _, t := range records {
			if strings.HasPrefix(strings.ToLower(t), "v=dkim1") {
				posture.HasDKIM = true
			}
		}
		if posture.HasDKIM {
			break
		}
	}

	// -------------------------
	// DMARC CHECK (_dmarc.domain)
	// -------------------------
	dmarcTXT, _ := net.LookupTXT("_dmarc." + domain)
	for _, t := range dmarcTXT {
		if strings.HasPrefix(strings.ToLower(t), "v=dmarc1") {
			posture.HasDMARC = true
			posture.DMARCRecord = t
		}
	}

	// -------------------------
	// CNAME CHAIN (CDN / security providers)
	// -------------------------
	for _, host := range []string{domain, "www." + domain} {
		cname, err := net.LookupCNAME(host)
		if err != nil {
			continue
		}
		cname = strings.TrimSuffix(cname, ".")
		if cname != "" && !strings.EqualFold(cname, host) {
			posture.CNAMEs = append(posture.CNAMEs, cname)
		}
	}

	return posture
}
