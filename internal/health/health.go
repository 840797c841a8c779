// Package health aggregates component liveness checks for the gateway's
// health endpoint. Checks run concurrently; a slow dependency degrades the
// overall status instead of failing it.
package health

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger is the connectivity probe both the graph store and the Redis
// cache expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check probes one component.
type Check interface {
	Name() string
	Check(ctx context.Context) Result
}

// Result is the outcome of one component probe.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Checker runs all registered checks and folds them into one status.
type Checker struct {
	mu     sync.RWMutex
	checks []Check
}

func NewChecker() *Checker {
	return &Checker{checks: make([]Check, 0)}
}

func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

// Check runs every registered probe concurrently.
func (c *Checker) Check(ctx context.Context) map[string]Result {
	c.mu.RLock()
	checks := make([]Check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make(map[string]Result)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, check := range checks {
		wg.Add(1)
		go func(ch Check) {
			defer wg.Done()
			start := time.Now()
			res := ch.Check(ctx)
			res.Duration = time.Since(start)
			mu.Lock()
			results[ch.Name()] = res
			mu.Unlock()
		}(check)
	}
	wg.Wait()
	return results
}

// OverallStatus folds component results: any unhealthy component makes the
// service unhealthy, any degraded one makes it degraded.
func (c *Checker) OverallStatus(results map[string]Result) Status {
	degraded := false
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			degraded = true
		}
	}
	if degraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// PingCheck probes any Pinger-style dependency. Dependencies answering
// slower than slowAfter report degraded rather than unhealthy.
type PingCheck struct {
	name      string
	target    Pinger
	slowAfter time.Duration
}

func NewPingCheck(name string, target Pinger, slowAfter time.Duration) *PingCheck {
	return &PingCheck{name: name, target: target, slowAfter: slowAfter}
}

func (p *PingCheck) Name() string { return p.name }

func (p *PingCheck) Check(ctx context.Context) Result {
	start := time.Now()
	err := p.target.Ping(ctx)
	elapsed := time.Since(start)

	res := Result{Name: p.name}
	switch {
	case err != nil:
		res.Status = StatusUnhealthy
		res.Message = err.Error()
	case p.slowAfter > 0 && elapsed > p.slowAfter:
		res.Status = StatusDegraded
		res.Message = "responding slowly"
	default:
		res.Status = StatusHealthy
	}
	return res
}
