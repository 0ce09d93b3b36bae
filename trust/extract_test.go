package trust

import (
	"errors"
	"testing"
)

func TestExtractDomainForms(t *testing.T) {
	cases := []struct {
		in          string
		registrable string
		subdomain   string
		tld         string
	}{
		{"https://shop.example.co.uk/path?q=1", "example.co.uk", "shop", "co.uk"},
		{"http://www.example.com", "example.com", "www", "com"},
		{"example.com", "example.com", "", "com"},
		{"EXAMPLE.COM./", "example.com", "", "com"},
		{"https://deep.sub.example.org:8443", "example.org", "deep.sub", "org"},
	}

	for _, c := range cases {
		parts, err := ExtractDomain(c.in)
		if err != nil {
			t.Fatalf("ExtractDomain(%q) failed: %v", c.in, err)
		}
		if parts.Registrable != c.registrable {
			t.Errorf("Expected registrable %q for %q, got %q", c.registrable, c.in, parts.Registrable)
		}
		if parts.Subdomain != c.subdomain {
			t.Errorf("Expected subdomain %q for %q, got %q", c.subdomain, c.in, parts.Subdomain)
		}
		if parts.TLD != c.tld {
			t.Errorf("Expected tld %q for %q, got %q", c.tld, c.in, parts.TLD)
		}
	}
}

func TestExtractDomainRawIP(t *testing.T) {
	parts, err := ExtractDomain("http://192.168.0.1/admin")
	if err != nil {
		t.Fatalf("ExtractDomain failed: %v", err)
	}
	if parts.Registrable != "192.168.0.1" {
		t.Errorf("Expected IP as registrable, got %q", parts.Registrable)
	}
	if parts.Subdomain != "" || parts.TLD != "" {
		t.Errorf("Expected no subdomain/tld for IP host, got %q/%q", parts.Subdomain, parts.TLD)
	}
}

func TestExtractDomainRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "http://", "://bad"} {
		_, err := ExtractDomain(in)
		if err == nil {
			t.Fatalf("Expected error for %q", in)
		}
		var extractErr *ExtractionError
		if !errors.As(err, &extractErr) {
			t.Errorf("Expected ExtractionError for %q, got %T", in, err)
		}
	}
}
