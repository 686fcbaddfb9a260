// FILENAME: internal/engine/engine_test.go
package engine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/engine"
	"github.com/xkilldash9x/owasp-driver/internal/models"
	"go.uber.org/zap"
)

// -- Mocks --

type MockTargetFactory struct {
	Target *MockTarget
}

func (f *MockTargetFactory) NewTarget(spec engine.TargetSpec, l *zap.Logger) (engine.Target, error) {
	if f.Target != nil {
		return f.Target, nil
	}
	return nil, errors.New("mock target factory fail")
}

type MockTarget struct {
	mu                 sync.Mutex
	Received           map[int][]byte
	SubmitError        error
	ResponseStatusCode int
	// ResponseFor overrides the body per probe when set.
	ResponseFor func(p *models.Probe) []byte
	Closed      bool
}

func (m *MockTarget) Submit(ctx context.Context, p *models.Probe) (*http.Response, error) {
	m.mu.Lock()
	if m.Received == nil {
		m.Received = make(map[int][]byte)
	}
	m.Received[p.Index] = p.Clone().Payload
	m.mu.Unlock()

	if m.SubmitError != nil {
		return nil, m.SubmitError
	}
	body := []byte("OK")
	if m.ResponseFor != nil {
		body = m.ResponseFor(p)
	}
	return &http.Response{
		StatusCode: m.ResponseStatusCode,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func (m *MockTarget) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func drainResults(ch <-chan models.ScanResult) []models.ScanResult {
	var results []models.ScanResult
	for r := range ch {
		results = append(results, r)
	}
	return results
}

func basePlan() engine.Plan {
	return engine.Plan{
		Iterations: 20,
		Workers:    4,
		Seed:       1000,
		SourceKind: "pcg",
		Length:     config.VariableLength,
		Target:     engine.TargetSpec{URL: "http://e.com"},
	}
}

// -- Tests --

func TestRun_Flow(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 200}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()

	resultsCh := make(chan models.ScanResult, plan.Iterations)
	// Run closes resultsCh upon completion
	if err := driver.Run(context.Background(), plan, resultsCh); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	results := drainResults(resultsCh)

	if len(results) != plan.Iterations {
		t.Fatalf("Expected %d results, got %d", plan.Iterations, len(results))
	}
	seen := make(map[int]bool)
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("probe %d: unexpected error %v", r.Index, r.Error)
		}
		if r.PayloadLen < 0 || r.PayloadLen >= 7000 {
			t.Errorf("probe %d: payload length %d out of range", r.Index, r.PayloadLen)
		}
		if r.PayloadLen != len(mock.Received[r.Index]) {
			t.Errorf("probe %d: result length %d, target saw %d", r.Index, r.PayloadLen, len(mock.Received[r.Index]))
		}
		seen[r.Index] = true
	}
	if len(seen) != plan.Iterations {
		t.Errorf("Expected every index once, got %d distinct", len(seen))
	}
	if !mock.Closed {
		t.Error("Target was not closed")
	}
}

// Output is a function of the plan, not of worker count or scheduling.
func TestRun_Reproducible(t *testing.T) {
	collect := func(workers int) map[int][]byte {
		mock := &MockTarget{ResponseStatusCode: 200}
		driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
		plan := basePlan()
		plan.Workers = workers
		ch := make(chan models.ScanResult, plan.Iterations)
		if err := driver.Run(context.Background(), plan, ch); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		drainResults(ch)
		return mock.Received
	}

	a, b := collect(1), collect(7)
	for idx, payload := range a {
		if !bytes.Equal(payload, b[idx]) {
			t.Fatalf("probe %d differs between runs", idx)
		}
	}
}

func TestRun_FixedLength(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 200}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()
	plan.Length = 37
	plan.SourceKind = "mt19937"

	ch := make(chan models.ScanResult, plan.Iterations)
	if err := driver.Run(context.Background(), plan, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, r := range drainResults(ch) {
		if r.PayloadLen != 37 {
			t.Errorf("probe %d: got %d bytes, want 37", r.Index, r.PayloadLen)
		}
	}
}

func TestRun_ZeroLength(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 200}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()
	plan.Length = 0

	ch := make(chan models.ScanResult, plan.Iterations)
	if err := driver.Run(context.Background(), plan, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, r := range drainResults(ch) {
		if r.Error != nil || r.PayloadLen != 0 {
			t.Errorf("probe %d: %+v", r.Index, r)
		}
	}
}

func TestRun_Burst(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 200}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()
	plan.Burst = true

	ch := make(chan models.ScanResult, plan.Iterations)
	if err := driver.Run(context.Background(), plan, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(drainResults(ch)); got != plan.Iterations {
		t.Errorf("Expected %d results, got %d", plan.Iterations, got)
	}
}

func TestRun_Classification(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 500}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()

	ch := make(chan models.ScanResult, plan.Iterations)
	if err := driver.Run(context.Background(), plan, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	novel := 0
	for _, r := range drainResults(ch) {
		if r.Meta[engine.MetaAnomaly] != engine.AnomalyServerError {
			t.Errorf("probe %d: expected server_error anomaly, got %q", r.Index, r.Meta[engine.MetaAnomaly])
		}
		if r.Meta[engine.MetaNovel] == "true" {
			novel++
		}
	}
	// Every response is the same "OK" body
	if novel != 1 {
		t.Errorf("Expected exactly 1 novel response, got %d", novel)
	}
}

func TestRun_SystematicErrors(t *testing.T) {
	logger := zap.NewNop()

	t.Run("FactoryFail", func(t *testing.T) {
		d := engine.NewDriver(&MockTargetFactory{}, logger)
		err := d.Run(context.Background(), basePlan(), make(chan models.ScanResult, 1))
		if err == nil {
			t.Error("Expected target init error")
		}
	})

	t.Run("InvalidPlan", func(t *testing.T) {
		d := engine.NewDriver(&MockTargetFactory{Target: &MockTarget{}}, logger)
		cases := map[string]func(p *engine.Plan){
			"ZeroIterations": func(p *engine.Plan) { p.Iterations = 0 },
			"ZeroWorkers":    func(p *engine.Plan) { p.Workers = 0 },
			"NegativeLength": func(p *engine.Plan) { p.Length = -5 },
			"UnknownSource":  func(p *engine.Plan) { p.SourceKind = "dice" },
		}
		for name, mutate := range cases {
			plan := basePlan()
			mutate(&plan)
			ch := make(chan models.ScanResult, 1)
			err := d.Run(context.Background(), plan, ch)
			if !errors.Is(err, engine.ErrInvalidPlan) {
				t.Errorf("%s: expected ErrInvalidPlan, got %v", name, err)
			}
			// Run closes the channel even on early return
			if _, ok := <-ch; ok {
				t.Errorf("%s: channel not closed", name)
			}
		}
	})

	t.Run("SubmitFail", func(t *testing.T) {
		d := engine.NewDriver(&MockTargetFactory{Target: &MockTarget{SubmitError: errors.New("broken pipe")}}, logger)
		ch := make(chan models.ScanResult, 20)
		if err := d.Run(context.Background(), basePlan(), ch); err != nil {
			t.Fatalf("Submit errors must not abort the run: %v", err)
		}
		for _, r := range drainResults(ch) {
			if r.Error == nil {
				t.Error("Expected submit error")
			}
			if r.Meta[engine.MetaAnomaly] != engine.AnomalyTransport {
				t.Errorf("Expected transport anomaly, got %q", r.Meta[engine.MetaAnomaly])
			}
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		d := engine.NewDriver(&MockTargetFactory{Target: &MockTarget{ResponseStatusCode: 200}}, logger)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ch := make(chan models.ScanResult, 20)
		err := d.Run(ctx, basePlan(), ch)
		drainResults(ch)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestReplay(t *testing.T) {
	mock := &MockTarget{ResponseStatusCode: 200}
	driver := engine.NewDriver(&MockTargetFactory{Target: mock}, zap.NewNop())
	plan := basePlan()

	ch := make(chan models.ScanResult, plan.Iterations)
	if err := driver.Run(context.Background(), plan, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var original models.ScanResult
	for _, r := range drainResults(ch) {
		if r.Index == 7 {
			original = r
		}
	}

	replayed, err := driver.Replay(context.Background(), plan, 7)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if replayed.PayloadHash != original.PayloadHash {
		t.Errorf("Replay payload differs: %s vs %s", replayed.PayloadHash, original.PayloadHash)
	}

	if _, err := driver.Replay(context.Background(), plan, plan.Iterations); !errors.Is(err, engine.ErrInvalidPlan) {
		t.Errorf("Expected out-of-range replay to fail, got %v", err)
	}
}
