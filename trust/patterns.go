package trust

import (
	"regexp"
	"strings"
)

// Known-safe suffixes - matching any of these (exact or as a parent
// domain) short-circuits lexical analysis entirely
var SafeDomainSuffixes = []string{
	"google.com",
	"youtube.com",
	"wikipedia.org",
	"github.com",
	"stackoverflow.com",
}

type lexicalPattern struct {
	Name string
	Re   *regexp.Regexp
}

// Suspicious lexical patterns - any hit pushes the domain to HIGH
var suspiciousPatterns = []lexicalPattern{
	{"raw_ip_host", regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)}, // 192-168-style hosts
	{"long_digit_run", regexp.MustCompile(`[0-9]{10,}`)},                      // autogenerated throwaway names
	{"repeated_separators", regexp.MustCompile(`[-_.]{3,}`)},                  // paypal---secure style
	{"free_tld", regexp.MustCompile(`\.(tk|ml|ga|cf)$`)},                      // frequently abused free TLDs
}

// PatternVerdict is the outcome of lexical analysis of a domain name.
type PatternVerdict struct {
	Level      ThreatLevel `json:"level"`
	Confidence float64     `json:"confidence"`
	Matched    []string    `json:"matched,omitempty"`
}

// AnalyzePatterns scores a domain on lexical shape alone. It is pure
// and deterministic: every input gets a verdict, nothing ever fails.
func AnalyzePatterns(domain string) PatternVerdict {
	d := strings.ToLower(strings.TrimSpace(domain))

	if isSafeSuffix(d) {
		return PatternVerdict{Level: LevelSafe, Confidence: 0.9}
	}

	verdict := PatternVerdict{Level: LevelMedium, Confidence: 0.5}

	for _, p := range suspiciousPatterns {
		if p.Re.MatchString(d) {
			verdict.Matched = append(verdict.Matched, p.Name)
		}
	}
	if n := len(verdict.Matched); n > 0 {
		verdict.Level = LevelHigh
		verdict.Confidence = min(0.8, 0.3+0.2*float64(n))
	}

	// Unusually long names only ever raise the verdict, never lower it
	if len(d) > 50 {
		verdict.Level = MaxLevel(verdict.Level, LevelMedium)
		verdict.Confidence = max(verdict.Confidence, 0.6)
	}

	if digitRatio(d) > 0.3 || hyphenRatio(d) > 0.2 {
		verdict.Level = MaxLevel(verdict.Level, LevelMedium)
		verdict.Confidence = max(verdict.Confidence, 0.7)
	}

	return verdict
}

func isSafeSuffix(domain string) bool {
	for _, safe := range SafeDomainSuffixes {
		if domain == safe || strings.HasSuffix(domain, "."+safe) {
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			count++
		}
	}
	return float64(count) / float64(len(s))
}

func hyphenRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			count++
		}
	}
	return float64(count) / float64(len(s))
}
