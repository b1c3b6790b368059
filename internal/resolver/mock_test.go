package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/toolscout/internal/provider"
	"github.com/sells-group/toolscout/internal/telemetry"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Name() string { return "mock" }

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) (*provider.Result, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Result), args.Error(1)
}

type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  []telemetry.Outcome
	providers []error
	extracted map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{extracted: make(map[string]int)}
}

func (r *recordingMetrics) ObserveResolve(outcome telemetry.Outcome, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) ObserveProvider(_ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, err)
}

func (r *recordingMetrics) ObserveExtracted(source string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extracted[source] += count
}

func (r *recordingMetrics) Outcomes() []telemetry.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Outcome(nil), r.outcomes...)
}
