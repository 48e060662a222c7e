// Package health serves liveness and readiness probes.
//
// Probes run in the background on a fixed interval. A probe flips to failing
// only after FailAfter consecutive errors and back to passing after
// RecoverAfter consecutive successes, so a single slow store read does not
// pull the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Check describes a single probe.
type Check struct {
	Name    string
	Timeout time.Duration
	Func    CheckFunc

	// FailAfter defaults to 3.
	FailAfter int
	// RecoverAfter defaults to 1.
	RecoverAfter int
}

type probe struct {
	Check

	mu      sync.Mutex
	passing bool
	lastErr error
	fails   int
	oks     int
}

func newProbe(c Check) *probe {
	if c.FailAfter <= 0 {
		c.FailAfter = 3
	}
	if c.RecoverAfter <= 0 {
		c.RecoverAfter = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	return &probe{Check: c, passing: true}
}

func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	err := p.Func(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErr = err
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= p.FailAfter {
			p.passing = false
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= p.RecoverAfter {
		p.passing = true
	}
}

// failure returns the reason the probe is failing, or "" when it passes.
func (p *probe) failure() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.passing {
		return ""
	}
	if p.lastErr != nil {
		return p.lastErr.Error()
	}
	return "failing"
}

// Health holds the registered probes and the manual readiness gate.
type Health struct {
	ready atomic.Bool

	mu     sync.Mutex
	live   []*probe
	readyz []*probe
	stop   context.CancelFunc
}

// New returns a Health that reports not ready until MarkReady(true).
func New() *Health {
	return &Health{}
}

// Live registers a liveness probe.
func (h *Health) Live(c Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(c))
}

// Ready registers a readiness probe.
func (h *Health) Ready(c Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyz = append(h.readyz, newProbe(c))
}

// MarkReady opens or closes the readiness gate.
func (h *Health) MarkReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(failures(h.snapshot(false))) == 0
}

// Start runs every probe once immediately and then every interval until Stop
// or ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.stop != nil {
		h.stop()
	}
	h.stop = cancel
	probes := append(append([]*probe(nil), h.live...), h.readyz...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			t := time.NewTicker(interval)
			defer t.Stop()
			p.tick(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					p.tick(ctx)
				}
			}
		}(p)
	}
}

// Stop halts background probes. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

func (h *Health) snapshot(live bool) []*probe {
	h.mu.Lock()
	defer h.mu.Unlock()
	if live {
		return append([]*probe(nil), h.live...)
	}
	return append([]*probe(nil), h.readyz...)
}

// LiveHandler serves /livez.
func (h *Health) LiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(true)))
}

// ReadyHandler serves /readyz.
func (h *Health) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(false))
	if !h.ready.Load() {
		failed["_gate"] = "not ready"
	}
	writeStatus(w, failed)
}

func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if reason := p.failure(); reason != "" {
			out[p.Name] = reason
		}
	}
	return out
}

// writeStatus responds with {"status":"ok"} or
// {"status":"unavailable","failures":{...}} and a 503.
func writeStatus(w http.ResponseWriter, failed map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unavailable")

		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("failures")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failed[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
