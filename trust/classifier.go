package trust

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"threat-analysis-service/metrics"
)

// WhitelistGate is the membership check consulted before any evidence
// is gathered.
type WhitelistGate interface {
	IsMember(ctx context.Context, domain string) bool
}

// Classifier gathers independent evidence about a domain and folds it
// into a single DomainSignal.
type Classifier struct {
	gate  WhitelistGate
	reg   RegistrationLookup
	certs CertificateLookup
	cache *Cache[*RegistrationInfo]
	log   *slog.Logger
}

// NewClassifier wires a classifier. All collaborators are required;
// cacheTTL bounds how long registration lookups are reused.
func NewClassifier(gate WhitelistGate, reg RegistrationLookup, certs CertificateLookup, cacheTTL time.Duration) *Classifier {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Classifier{
		gate:  gate,
		reg:   reg,
		certs: certs,
		cache: NewCache[*RegistrationInfo](cacheTTL),
		log:   slog.Default().With("component", "classifier"),
	}
}

// Classify resolves a URL into a DomainSignal. The only error it
// returns is *ExtractionError; every evidence failure degrades into
// the signal itself.
func (c *Classifier) Classify(ctx context.Context, rawURL string) (*DomainSignal, error) {
	start := time.Now()

	parts, err := ExtractDomain(rawURL)
	if err != nil {
		return nil, err
	}

	signal := &DomainSignal{
		Domain:    parts.Registrable,
		Subdomain: parts.Subdomain,
		TLD:       parts.TLD,
		Timestamp: time.Now().UTC(),
	}

	// Whitelist fast path: membership ends the pipeline before any
	// network evidence is gathered.
	if c.gate.IsMember(ctx, parts.Registrable) {
		signal.IsWhitelisted = true
		signal.ThreatLevel = LevelSafe
		signal.Confidence = 1.0
		c.finish(signal, start)
		return signal, nil
	}

	// --- PARALLEL EVIDENCE GATHERING ---
	var (
		reg     *RegistrationInfo
		regErr  error
		cert    *CertificateInfo
		certErr error
		verdict PatternVerdict
	)

	g, _ := errgroup.WithContext(ctx)

	// Registration (whois, cached)
	g.Go(func() error {
		reg, regErr = c.lookupRegistration(parts.Registrable)
		return nil
	})

	// Certificate
	g.Go(func() error {
		cert, certErr = c.certs.Lookup(parts.Registrable)
		return nil
	})

	// Lexical patterns (local, never fails)
	g.Go(func() error {
		verdict = AnalyzePatterns(parts.Registrable)
		return nil
	})

	// Wait
	_ = g.Wait()

	var notes []string
	if regErr != nil {
		c.log.Warn("registration lookup failed", "domain", parts.Registrable, "error", regErr)
		metrics.LookupFailures.WithLabelValues("registration").Inc()
		notes = append(notes, "registration lookup failed: "+regErr.Error())
		reg = nil
	}
	if certErr != nil {
		c.log.Warn("certificate lookup failed", "domain", parts.Registrable, "error", certErr)
		metrics.LookupFailures.WithLabelValues("certificate").Inc()
		notes = append(notes, "certificate lookup failed: "+certErr.Error())
		cert = nil
	}

	signal.Registration = reg
	signal.Certificate = cert
	signal.ThreatLevel, signal.Confidence = aggregateEvidence(verdict, reg, cert, time.Now())
	signal.ErrorMessage = strings.Join(notes, "; ")

	c.finish(signal, start)
	return signal, nil
}

func (c *Classifier) finish(signal *DomainSignal, start time.Time) {
	metrics.ClassificationsTotal.WithLabelValues(string(signal.ThreatLevel)).Inc()
	metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
}

// lookupRegistration serves from cache when possible. Only successful
// lookups are cached, so a transient whois outage is retried on the
// next classification instead of being pinned for the full TTL.
func (c *Classifier) lookupRegistration(domain string) (*RegistrationInfo, error) {
	if cached, ok := c.cache.Get(domain); ok {
		metrics.RegistrationCacheHits.Inc()
		return cached, nil
	}
	metrics.RegistrationCacheMisses.Inc()

	info, err := c.reg.Lookup(domain)
	if err != nil {
		return nil, err
	}
	c.cache.Set(domain, info)
	return info, nil
}

// PurgeCache drops expired registration entries and reports the count.
func (c *Classifier) PurgeCache() int {
	return c.cache.Purge()
}

type evidenceFactor struct {
	weight float64
	level  ThreatLevel
}

// aggregateEvidence folds registration and certificate evidence into
// the lexical verdict. Factors only ever raise the level; with no
// factors the verdict stands unchanged.
func aggregateEvidence(verdict PatternVerdict, reg *RegistrationInfo, cert *CertificateInfo, now time.Time) (ThreatLevel, float64) {
	var factors []evidenceFactor

	if reg != nil {
		if age := reg.AgeDays(now); age >= 0 {
			if age < 30 {
				factors = append(factors, evidenceFactor{0.7, LevelHigh})
			} else if age < 365 {
				factors = append(factors, evidenceFactor{0.5, LevelMedium})
			}
		}
		if reg.Org == "" && reg.Registrar == "" {
			factors = append(factors, evidenceFactor{0.4, LevelMedium})
		}
	}
	if cert == nil || !cert.Available {
		factors = append(factors, evidenceFactor{0.6, LevelHigh})
	}

	if len(factors) == 0 {
		return verdict.Level, verdict.Confidence
	}

	level := verdict.Level
	sum := 0.0
	for _, f := range factors {
		level = MaxLevel(level, f.level)
		sum += f.weight
	}
	confidence := min(1.0, max(verdict.Confidence, sum/float64(len(factors))))
	return level, confidence
}

// BatchItem is one positional outcome of ClassifyBatch.
type BatchItem struct {
	URL    string        `json:"url"`
	Signal *DomainSignal `json:"signal,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BatchResult preserves input order: Results[i] answers urls[i].
type BatchResult struct {
	Results      []BatchItem `json:"results"`
	SuccessCount int         `json:"success_count"`
	FailedCount  int         `json:"failed_count"`
}

// ClassifyBatch classifies urls with at most maxConcurrency in flight.
func (c *Classifier) ClassifyBatch(ctx context.Context, urls []string, maxConcurrency int) BatchResult {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}

	items := make([]BatchItem, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			items[i] = BatchItem{URL: u}
			signal, err := c.Classify(ctx, u)
			if err != nil {
				items[i].Error = err.Error()
			} else {
				items[i].Signal = signal
			}
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Results: items}
	for _, item := range items {
		if item.Error != "" {
			result.FailedCount++
		} else {
			result.SuccessCount++
		}
	}
	return result
}
