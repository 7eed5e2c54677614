// Package patterns provides a centralized pattern registry for the
// deception pipeline. All regexes are compiled once at first use and
// shared across every session.
//
// Design principles:
// - COMPILE ONCE: Patterns compiled at init, not per-message
// - DRY: Single source of truth for detection patterns
// - CATEGORIZED: Patterns organized by category for targeted checks
package patterns

import (
	"regexp"
	"sync"
)

// Category represents a detection pattern category
type Category string

const (
	// CategoryJailbreak detects prompt injection and persona probing.
	// Matches here outrank everything else in the state machine.
	CategoryJailbreak Category = "jailbreak"

	// CategoryForceExtract detects payment rails and contact points
	// (UPI, bank, URL, crypto, gift cards) that force the EXTRACT state.
	CategoryForceExtract Category = "force_extract"
)

// Pattern holds a compiled regex with metadata
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Detection category
	Severity    int            // Risk score contribution (0-100)
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton)
// Thread-safe and guaranteed to be initialized
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// NewRegistry creates and populates a fresh registry. Tests use this to
// avoid sharing state through the singleton.
func NewRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 96),
	}

	r.registerJailbreakPatterns()
	r.registerForceExtractPatterns()

	return r
}

// register adds a pattern to the registry (internal use only)
func (r *Registry) register(name string, pattern string, category Category, severity int, description string) {
	compiled := regexp.MustCompile(pattern)
	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Severity:    severity,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category
// Returns empty slice if category not found (never nil)
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// MatchAny checks if text matches any pattern in the given categories.
// Returns the first matching pattern or nil. Registration order is
// preserved, so the result is deterministic for a given text.
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	for _, cat := range cats {
		for _, p := range r.GetByCategory(cat) {
			if p.Regex.MatchString(text) {
				return p
			}
		}
	}
	return nil
}

// FindFirst returns the first matching pattern along with the matched
// substring. Used where the caller wants the evidence, not just the hit.
func (r *Registry) FindFirst(text string, cats ...Category) (*Pattern, string) {
	for _, cat := range cats {
		for _, p := range r.GetByCategory(cat) {
			if m := p.Regex.FindString(text); m != "" {
				return p, m
			}
		}
	}
	return nil, ""
}

// MatchAll returns all patterns that match the text in given categories
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	var matches []*Pattern
	for _, cat := range cats {
		for _, p := range r.GetByCategory(cat) {
			if p.Regex.MatchString(text) {
				matches = append(matches, p)
			}
		}
	}
	return matches
}

// TotalPatterns returns the total count of registered patterns
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
