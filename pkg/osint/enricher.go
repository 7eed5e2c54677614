// Package osint enriches extracted artifacts against external threat
// intelligence services. Enrichment is strictly fire-and-forget: lookups
// run on background goroutines behind a semaphore, failures are silent,
// and results land in a pollable store. The conversation path never
// waits on anything in this package.
package osint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/baitline/baitline/pkg/extract"
	"github.com/baitline/baitline/pkg/httputil"
)

// Finding is one enrichment result for one artifact.
type Finding struct {
	Provider string         `json:"provider"`
	Target   string         `json:"target"`
	Kind     string         `json:"kind"`
	Summary  string         `json:"summary"`
	Data     map[string]any `json:"data,omitempty"`
	At       time.Time      `json:"at"`
}

// Results collects findings per session for later polling.
type Results struct {
	mu        sync.Mutex
	bySession map[string][]Finding
}

// NewResults returns an empty result store.
func NewResults() *Results {
	return &Results{bySession: make(map[string][]Finding)}
}

func (r *Results) add(sessionID string, f Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySession[sessionID] = append(r.bySession[sessionID], f)
}

// Get returns a copy of all findings for a session.
func (r *Results) Get(sessionID string) []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Finding(nil), r.bySession[sessionID]...)
}

// Enricher fans artifact lookups out to the configured providers.
type Enricher struct {
	vtKey     string
	shodanKey string
	enabled   bool

	sem      *httputil.Semaphore
	client   *http.Client
	results  *Results
	log      *zap.Logger
	now      func() time.Time
	onLookup func(provider, outcome string)
	wg       sync.WaitGroup
}

// Config holds enricher settings.
type Config struct {
	Enabled          bool
	VirusTotalAPIKey string
	ShodanAPIKey     string
	MaxConcurrent    int

	// OnLookup observes every lookup with its provider and outcome
	// ("ok" or "error"). Optional.
	OnLookup func(provider, outcome string)
}

// NewEnricher builds an enricher. With Enabled false every Enrich call
// is a no-op, which is also the safe-mode default.
func NewEnricher(cfg Config, results *Results, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	if results == nil {
		results = NewResults()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Enricher{
		vtKey:     cfg.VirusTotalAPIKey,
		shodanKey: cfg.ShodanAPIKey,
		enabled:   cfg.Enabled,
		sem:       httputil.NewSemaphore(maxConcurrent),
		client:    httputil.MediumClient(),
		results:   results,
		log:       log,
		now:       time.Now,
		onLookup:  cfg.OnLookup,
	}
}

func (e *Enricher) observe(provider, outcome string) {
	if e.onLookup != nil {
		e.onLookup(provider, outcome)
	}
}

// Results returns the store findings are written to.
func (e *Enricher) Results() *Results { return e.results }

// Enrich schedules lookups for every artifact that has a provider.
// Returns immediately; artifacts are never mutated.
func (e *Enricher) Enrich(sessionID string, artifacts *extract.Artifacts) {
	if !e.enabled || artifacts == nil {
		return
	}

	for _, link := range artifacts.PhishingLinks {
		e.spawn(func() { e.lookupURL(sessionID, link) })
	}
	for _, email := range artifacts.Emails {
		e.spawn(func() { e.recordEmail(sessionID, email) })
	}
}

// Wait blocks until all scheduled lookups finish. Test hook.
func (e *Enricher) Wait() { e.wg.Wait() }

func (e *Enricher) spawn(fn func()) {
	if !e.sem.TryAcquire() {
		e.log.Debug("enrichment dropped", zap.Int64("dropped_total", e.sem.DroppedCount()))
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release()
		fn()
	}()
}

// lookupURL asks VirusTotal for a verdict, then Shodan for host detail
// on the domain. Either provider missing a key is simply skipped.
func (e *Enricher) lookupURL(sessionID, link string) {
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if e.vtKey != "" {
		if f, ok := e.virusTotalURL(ctx, link); ok {
			e.results.add(sessionID, f)
		}
	}
	if e.shodanKey != "" {
		if f, ok := e.shodanHost(ctx, domainOf(link)); ok {
			e.results.add(sessionID, f)
		}
	}
}

func (e *Enricher) recordEmail(sessionID, email string) {
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return
	}
	e.observe("local", "ok")
	e.results.add(sessionID, Finding{
		Provider: "local",
		Target:   email,
		Kind:     "email",
		Summary:  fmt.Sprintf("email domain %s observed in scam context", email[at+1:]),
		At:       e.now(),
	})
}

func (e *Enricher) virusTotalURL(ctx context.Context, link string) (Finding, bool) {
	endpoint := "https://www.virustotal.com/api/v3/search?query=" + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Finding{}, false
	}
	req.Header.Set("x-apikey", e.vtKey)

	data, ok := e.fetchJSON(req, "virustotal")
	if !ok {
		return Finding{}, false
	}
	return Finding{
		Provider: "virustotal",
		Target:   link,
		Kind:     "url",
		Summary:  "VirusTotal verdict retrieved",
		Data:     data,
		At:       e.now(),
	}, true
}

func (e *Enricher) shodanHost(ctx context.Context, domain string) (Finding, bool) {
	if domain == "" {
		return Finding{}, false
	}

	resolveURL := fmt.Sprintf("https://api.shodan.io/dns/resolve?hostnames=%s&key=%s",
		url.QueryEscape(domain), url.QueryEscape(e.shodanKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolveURL, nil)
	if err != nil {
		return Finding{}, false
	}
	resolved, ok := e.fetchJSON(req, "shodan")
	if !ok {
		return Finding{}, false
	}

	ip, _ := resolved[domain].(string)
	if ip == "" {
		return Finding{}, false
	}

	hostURL := fmt.Sprintf("https://api.shodan.io/shodan/host/%s?key=%s",
		url.PathEscape(ip), url.QueryEscape(e.shodanKey))
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, hostURL, nil)
	if err != nil {
		return Finding{}, false
	}
	host, ok := e.fetchJSON(req, "shodan")
	if !ok {
		return Finding{}, false
	}

	return Finding{
		Provider: "shodan",
		Target:   domain,
		Kind:     "host",
		Summary:  fmt.Sprintf("%s resolves to %s", domain, ip),
		Data:     host,
		At:       e.now(),
	}, true
}

// fetchJSON performs the request and decodes a JSON object. All failures
// are logged at debug and swallowed.
func (e *Enricher) fetchJSON(req *http.Request, provider string) (map[string]any, bool) {
	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Debug("enrichment request failed", zap.String("provider", provider), zap.Error(err))
		e.observe(provider, "error")
		return nil, false
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		e.log.Debug("enrichment non-200", zap.String("provider", provider), zap.Int("status", resp.StatusCode))
		e.observe(provider, "error")
		return nil, false
	}

	body, err := httputil.ReadResponseBody(resp.Body, 0)
	if err != nil {
		e.observe(provider, "error")
		return nil, false
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		e.log.Debug("enrichment decode failed", zap.String("provider", provider), zap.Error(err))
		e.observe(provider, "error")
		return nil, false
	}
	e.observe(provider, "ok")
	return data, true
}

// domainOf strips protocol, path and port from a captured link.
func domainOf(link string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/:?"); i >= 0 {
		s = s[:i]
	}
	return s
}
