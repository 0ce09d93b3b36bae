package trust

import (
	"crypto/tls"
	"net"
	"time"
)

// CertificateLookup resolves TLS certificate evidence for a domain.
type CertificateLookup interface {
	Lookup(domain string) (*CertificateInfo, error)
}

// TLSLookup performs a real TLS handshake on port 443 and reports the
// leaf certificate the server presents.
type TLSLookup struct {
	timeout time.Duration
}

func NewTLSLookup(timeout time.Duration) *TLSLookup {
	return &TLSLookup{timeout: timeout}
}

// Lookup dials domain:443. A failed handshake is evidence rather than
// an error: it comes back as Available=false with the failure recorded.
func (l *TLSLookup) Lookup(domain string) (*CertificateInfo, error) {
	d := &net.Dialer{Timeout: l.timeout}
	conn, err := tls.DialWithDialer(d, "tcp", domain+":443", &tls.Config{ServerName: domain})
	if err != nil {
		return &CertificateInfo{Available: false, Error: err.Error()}, nil
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return &CertificateInfo{Available: false, Error: "no peer certificates presented"}, nil
	}

	leaf := certs[0]
	notBefore := leaf.NotBefore
	notAfter := leaf.NotAfter
	return &CertificateInfo{
		Available: true,
		Issuer:    leaf.Issuer.String(),
		Subject:   leaf.Subject.String(),
		NotBefore: &notBefore,
		NotAfter:  &notAfter,
	}, nil
}
