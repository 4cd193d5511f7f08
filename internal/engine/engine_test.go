package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/probe"
	"github.com/hamed0406/pingboard/internal/repo/memory"
)

// --- fakes ---

// scriptedProber answers per address; unknown addresses are rejected.
type scriptedProber struct {
	mu      sync.Mutex
	answers map[string]string
	fails   map[string]error
	panics  map[string]bool
	calls   []string
	started map[string]time.Time
}

func newScripted() *scriptedProber {
	return &scriptedProber{
		answers: map[string]string{},
		fails:   map[string]error{},
		panics:  map[string]bool{},
		started: map[string]time.Time{},
	}
}

func (s *scriptedProber) Probe(ctx context.Context, address string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, address)
	s.started[address] = time.Now()
	out, ok := s.answers[address]
	err := s.fails[address]
	boom := s.panics[address]
	s.mu.Unlock()

	if boom {
		panic("prober exploded")
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("no route to host")
	}
	return out, nil
}

func (s *scriptedProber) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newEngine(p probe.Prober) (*Engine, *memory.Store) {
	store := memory.New()
	e := New(zap.NewNop(), p, store, Options{Stagger: time.Millisecond})
	return e, store
}

func endpoints(n int) []domain.Endpoint {
	out := make([]domain.Endpoint, n)
	for i := range out {
		out[i] = domain.Endpoint{
			ID:     domain.EndpointID(fmt.Sprintf("server_%d", i)),
			Name:   fmt.Sprintf("Server %d", i),
			IP:     fmt.Sprintf("10.0.0.%d", i+1),
			Region: "Europe",
		}
	}
	return out
}

// --- single-target probe ---

func TestProbe_StoresSuccess(t *testing.T) {
	p := newScripted()
	p.answers["10.0.0.1"] = "47ms (TCP)"
	e, store := newEngine(p)

	ep := endpoints(1)[0]
	entry, err := e.Probe(context.Background(), &ep)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !entry.Outcome.OK() || entry.Outcome.LatencyMS == nil || *entry.Outcome.LatencyMS != 47 {
		t.Fatalf("unexpected outcome %+v", entry.Outcome)
	}
	if entry.CheckedAt.IsZero() {
		t.Fatalf("timestamp not set")
	}
	got, _ := store.Get(context.Background(), ep.ID)
	if got == nil || got.Outcome.Status != domain.StatusSuccess {
		t.Fatalf("cache not written: %+v", got)
	}
	if v, ok := e.Trend(ep.ID); !ok || v != 47 {
		t.Fatalf("trend not updated: %v %v", v, ok)
	}
}

func TestProbe_RejectionBecomesFailure(t *testing.T) {
	p := newScripted()
	p.fails["10.0.0.1"] = errors.New("Server did not respond (timeout)")
	e, store := newEngine(p)

	ep := endpoints(1)[0]
	entry, err := e.Probe(context.Background(), &ep)
	if err != nil {
		t.Fatalf("prober rejection must not escape: %v", err)
	}
	if entry.Outcome.Status != domain.StatusFailure || entry.Outcome.ErrorKind != domain.ErrConnectionTimeout {
		t.Fatalf("unexpected outcome %+v", entry.Outcome)
	}
	if store.Len() != 1 {
		t.Fatalf("want exactly one cache write, got %d entries", store.Len())
	}
}

func TestProbe_Preconditions(t *testing.T) {
	p := newScripted()
	e, store := newEngine(p)

	if _, err := e.Probe(context.Background(), nil); !errors.Is(err, ErrEndpointNotFound) {
		t.Fatalf("want ErrEndpointNotFound, got %v", err)
	}
	ep := domain.Endpoint{ID: "x", Name: "No IP"}
	if _, err := e.Probe(context.Background(), &ep); !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("want ErrMissingAddress, got %v", err)
	}
	if p.callCount() != 0 {
		t.Fatalf("prober must not be called on precondition failure")
	}
	if store.Len() != 0 {
		t.Fatalf("precondition failure must not write the cache")
	}
}

func TestProbe_PanicBecomesFailure(t *testing.T) {
	p := newScripted()
	p.panics["10.0.0.1"] = true
	e, _ := newEngine(p)

	ep := endpoints(1)[0]
	entry, err := e.Probe(context.Background(), &ep)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if entry.Outcome.Status != domain.StatusFailure {
		t.Fatalf("want failure after panic, got %+v", entry.Outcome)
	}
}

// --- sweep ---

func TestSweepAll_IsolatesFailures(t *testing.T) {
	p := newScripted()
	eps := endpoints(5)
	for i, ep := range eps {
		p.answers[ep.IP] = fmt.Sprintf("%dms (TCP)", 10*(i+1))
	}
	p.fails[eps[2].IP] = errors.New("connection failed")
	e, store := newEngine(p)

	r, err := e.SweepAll(context.Background(), eps, nil)
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if r.TotalChecked != 5 || r.SuccessCount != 4 || r.FailureCount != 1 {
		t.Fatalf("unexpected summary %+v", r)
	}

	all, _ := store.List(context.Background())
	if len(all) != 5 {
		t.Fatalf("want 5 cache entries, got %d", len(all))
	}
	for i, ep := range eps {
		got, _ := store.Get(context.Background(), ep.ID)
		if got == nil {
			t.Fatalf("missing entry for %s", ep.ID)
		}
		if i == 2 {
			if got.Outcome.Status != domain.StatusFailure {
				t.Fatalf("endpoint #3 should fail, got %+v", got.Outcome)
			}
			continue
		}
		if !got.Outcome.OK() || *got.Outcome.LatencyMS != 10*(i+1) {
			t.Fatalf("endpoint %d has wrong outcome %+v", i, got.Outcome)
		}
	}
}

func TestSweepAll_PanicIsolated(t *testing.T) {
	p := newScripted()
	eps := endpoints(3)
	for _, ep := range eps {
		p.answers[ep.IP] = "20ms (ICMP)"
	}
	p.panics[eps[1].IP] = true
	e, _ := newEngine(p)

	r, err := e.SweepAll(context.Background(), eps, nil)
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if r.SuccessCount != 2 || r.FailureCount != 1 {
		t.Fatalf("unexpected summary %+v", r)
	}
}

func TestSweepAll_ReplacesPreviousGeneration(t *testing.T) {
	p := newScripted()
	p.answers["10.0.0.1"] = "5ms (TCP)"
	e, store := newEngine(p)

	_ = store.Put(context.Background(), &domain.ResultEntry{Endpoint: domain.Endpoint{ID: "stale"}})

	if _, err := e.SweepAll(context.Background(), endpoints(1), nil); err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if got, _ := store.Get(context.Background(), "stale"); got != nil {
		t.Fatalf("previous generation survived the sweep")
	}
	if store.Generation() != 1 {
		t.Fatalf("want one generation swap, got %d", store.Generation())
	}
}

func TestSweepAll_ProgressMonotonic(t *testing.T) {
	p := newScripted()
	eps := endpoints(4)
	for _, ep := range eps {
		p.answers[ep.IP] = "9ms (TCP)"
	}
	p.fails[eps[0].IP] = errors.New("timeout")
	e, _ := newEngine(p)

	var seen []Progress
	_, err := e.SweepAll(context.Background(), eps, func(pr Progress) { seen = append(seen, pr) })
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("want 4 progress calls, got %d", len(seen))
	}
	for i, pr := range seen {
		if pr.Completed != i+1 || pr.Total != 4 {
			t.Fatalf("progress %d out of order: %+v", i, pr)
		}
		if i > 0 && pr.Successful < seen[i-1].Successful {
			t.Fatalf("successful counter went backwards: %+v", seen)
		}
	}
	final := e.Progress()
	if final.Running || final.Completed != 4 || final.Successful != 3 {
		t.Fatalf("unexpected final progress %+v", final)
	}
}

func TestSweepAll_Staggered(t *testing.T) {
	p := newScripted()
	eps := endpoints(4)
	for _, ep := range eps {
		p.answers[ep.IP] = "1ms (TCP)"
	}
	store := memory.New()
	e := New(zap.NewNop(), p, store, Options{Stagger: 25 * time.Millisecond})

	start := time.Now()
	if _, err := e.SweepAll(context.Background(), eps, nil); err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	for i, ep := range eps {
		offset := p.started[ep.IP].Sub(start)
		if min := time.Duration(i) * 25 * time.Millisecond; offset < min {
			t.Fatalf("endpoint %d started after %s, want >= %s", i, offset, min)
		}
	}
}

func TestSweepAll_MissingAddressIsFailureEntry(t *testing.T) {
	p := newScripted()
	eps := endpoints(2)
	p.answers[eps[0].IP] = "3ms (TCP)"
	eps[1].IP = ""
	e, store := newEngine(p)

	r, err := e.SweepAll(context.Background(), eps, nil)
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if r.FailureCount != 1 {
		t.Fatalf("want one failure, got %+v", r)
	}
	got, _ := store.Get(context.Background(), eps[1].ID)
	if got == nil || got.Outcome.ErrorKind != domain.ErrMissingAddress {
		t.Fatalf("want missing address entry, got %+v", got)
	}
	if p.callCount() != 1 {
		t.Fatalf("prober called for endpoint without address")
	}
}

func TestSweepAll_BoundedConcurrency(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	p := probe.ProberFunc(func(ctx context.Context, address string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return "4ms (TCP)", nil
	})
	e := New(zap.NewNop(), p, memory.New(), Options{Stagger: -1, Concurrency: 2})

	if _, err := e.SweepAll(context.Background(), endpoints(6), nil); err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if peak > 2 {
		t.Fatalf("concurrency cap exceeded: peak=%d", peak)
	}
}

func TestSweepAll_RejectsOverlappingSweep(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	p := probe.ProberFunc(func(ctx context.Context, address string) (string, error) {
		entered <- struct{}{}
		<-release
		return "1ms (TCP)", nil
	})
	e := New(zap.NewNop(), p, memory.New(), Options{Stagger: -1})

	done := make(chan error, 1)
	go func() {
		_, err := e.SweepAll(context.Background(), endpoints(1), nil)
		done <- err
	}()
	<-entered

	if _, err := e.SweepAll(context.Background(), endpoints(1), nil); !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("want ErrSweepInProgress, got %v", err)
	}
	if !e.Progress().Running {
		t.Fatalf("progress should report a running sweep")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first sweep: %v", err)
	}
}

func TestSweepAll_Empty(t *testing.T) {
	e, _ := newEngine(newScripted())
	r, err := e.SweepAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if r.TotalChecked != 0 {
		t.Fatalf("want empty report, got %+v", r)
	}
}

// --- report ---

func TestReport_UsesLiveCache(t *testing.T) {
	p := newScripted()
	p.answers["10.0.0.1"] = "30ms (TCP)"
	e, _ := newEngine(p)
	fixed := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	ep := endpoints(1)[0]
	if _, err := e.Probe(context.Background(), &ep); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	e.now = func() time.Time { return fixed.Add(11 * time.Minute) }

	r, err := e.Report(context.Background())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.TotalChecked != 1 || !r.StaleEntryPresent {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Regions[0].Entries[0].AgeMinutes != 11 {
		t.Fatalf("want age 11, got %d", r.Regions[0].Entries[0].AgeMinutes)
	}
	if r.Regions[0].Entries[0].TrendMS == nil {
		t.Fatalf("trend should be attached")
	}
}
