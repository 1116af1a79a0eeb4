package rpc

import (
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// ErrNoHealthyRPC is returned when no endpoint can be used.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm selects how a Picker chooses between endpoints.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Nodes further behind the best block than this are skipped.
	staleBlockThreshold = 3
	// The fastest winner is reused for this long.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm maps a config value to an Algorithm. Unknown values mean
// fastest.
func ParseAlgorithm(s string) Algorithm {
	switch Algorithm(s) {
	case AlgorithmRoundRobin, AlgorithmFailover:
		return Algorithm(s)
	default:
		return AlgorithmFastest
	}
}

// Endpoint is an RPC URL with its probe results.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // meaningful only when Checked
	Checked     bool
}

// Picker selects an endpoint according to its algorithm.
type Picker struct {
	algo Algorithm
	now  func() time.Time

	mu          sync.Mutex
	rrIndex     int
	cachedURL   string
	cacheExpiry time.Time
}

// NewPicker creates a Picker.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo, now: time.Now}
}

// Pick selects an endpoint from endpoints.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}
	switch p.algo {
	case AlgorithmRoundRobin:
		return p.pickRoundRobin(endpoints)
	case AlgorithmFailover:
		return pickFailover(endpoints)
	default:
		return p.pickFastest(endpoints)
	}
}

func (p *Picker) pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedURL != "" && p.now().Before(p.cacheExpiry) {
		for i := range endpoints {
			if endpoints[i].URL == p.cachedURL {
				return &endpoints[i], nil
			}
		}
	}

	var best uint64
	for _, e := range endpoints {
		best = max(best, e.BlockNumber)
	}

	var winner *Endpoint
	var bestScore float64
	for _, e := range usable(endpoints) {
		if best > 0 && best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, best); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}

	p.cachedURL = winner.URL
	p.cacheExpiry = p.now().Add(cacheTTL)
	return winner, nil
}

func (p *Picker) pickRoundRobin(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := usable(endpoints)
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}
	idx := p.rrIndex % len(candidates)
	p.rrIndex = (idx + 1) % len(candidates)
	return candidates[idx], nil
}

// pickFailover takes the first endpoint not known to be down.
func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			return e, nil
		}
	}
	return nil, ErrNoHealthyRPC
}

// score favours low latency, then recency.
func score(e *Endpoint, best uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if best > 0 {
		s -= float64(best - e.BlockNumber)
	}
	return s
}

// usable drops endpoints that were checked and found unhealthy.
func usable(endpoints []Endpoint) []*Endpoint {
	ptrs := make([]*Endpoint, len(endpoints))
	for i := range endpoints {
		ptrs[i] = &endpoints[i]
	}
	return lo.Filter(ptrs, func(e *Endpoint, _ int) bool { return !e.Checked || e.Healthy })
}
