// Tests for the stage runner:
//   - sequential execution and per-stage timing
//   - short-circuit on first failure
//   - state transitions visible while stages run
//   - context cancellation between stages
//   - stage metrics recording
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"churnetl/internal/logging"
	"churnetl/internal/metrics"
)

// recordingBackend captures metric calls. It doubles as the inert
// backend restored after the metrics test.
type recordingBackend struct {
	mu       sync.Mutex
	counters []string
	statuses []string
	observed []float64
}

func (b *recordingBackend) IncCounter(name string, _ float64, labels metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counters = append(b.counters, name)
	b.statuses = append(b.statuses, labels["status"])
}

func (b *recordingBackend) ObserveHistogram(_ string, value float64, _ metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observed = append(b.observed, value)
}

func (b *recordingBackend) Flush() error { return nil }

// newTestRunner fixes the clock (one second per call) and the run id.
func newTestRunner(stages ...Stage) *Runner {
	r := NewRunner(logging.Nop(), "test-job", stages...)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	r.newID = func() string { return "run-fixed" }
	return r
}

func okStage(name string, state State, ran *[]string) Stage {
	return Stage{Name: name, State: state, Run: func(context.Context) error {
		*ran = append(*ran, name)
		return nil
	}}
}

// TestRun_RecordsStageMetrics swaps the global metrics backend, so it
// must finish before the parallel tests start. Keep it unparallel.
func TestRun_RecordsStageMetrics(t *testing.T) {
	rec := &recordingBackend{}
	metrics.SetBackend(rec)
	defer metrics.SetBackend(&recordingBackend{})

	boom := errors.New("boom")
	var ran []string
	r := newTestRunner(
		okStage("ingest", StateIngesting, &ran),
		Stage{Name: "transform", State: StateTransforming, Run: func(context.Context) error { return boom }},
	)
	r.Run(context.Background())

	if len(rec.counters) != 2 || rec.counters[0] != "pipeline_stage_total" {
		t.Fatalf("counters = %v, want two pipeline_stage_total increments", rec.counters)
	}
	if rec.statuses[0] != "success" || rec.statuses[1] != "failure" {
		t.Errorf("statuses = %v, want [success failure]", rec.statuses)
	}
	if len(rec.observed) != 2 || rec.observed[0] != 1.0 {
		t.Errorf("observed durations = %v, want two 1s observations", rec.observed)
	}
}

func TestRun_AllStagesSucceed(t *testing.T) {
	t.Parallel()

	var ran []string
	r := newTestRunner(
		okStage("ingest", StateIngesting, &ran),
		okStage("transform", StateTransforming, &ran),
		okStage("model", StateModeling, &ran),
	)

	sum := r.Run(context.Background())

	if got := []string{"ingest", "transform", "model"}; len(ran) != 3 || ran[0] != got[0] || ran[1] != got[1] || ran[2] != got[2] {
		t.Errorf("stage order = %v, want %v", ran, got)
	}
	if !sum.Succeeded() || sum.State != StateSucceeded || r.State() != StateSucceeded {
		t.Errorf("terminal state = %s/%s", sum.State, r.State())
	}
	if sum.RunID != "run-fixed" {
		t.Errorf("RunID = %q", sum.RunID)
	}
	if sum.Err() != nil {
		t.Errorf("Err = %v, want nil", sum.Err())
	}
	for i, st := range sum.Stages {
		if st.Duration != time.Second {
			t.Errorf("stage %d duration = %v, want 1s", i, st.Duration)
		}
	}
	if sum.Duration != 7*time.Second {
		t.Errorf("total duration = %v, want 7s", sum.Duration)
	}
}

func TestRun_FirstFailureShortCircuits(t *testing.T) {
	t.Parallel()

	boom := errors.New("replace silver.customers_staging: connection reset")
	var ran []string
	r := newTestRunner(
		okStage("ingest", StateIngesting, &ran),
		Stage{Name: "transform", State: StateTransforming, Run: func(context.Context) error { return boom }},
		okStage("model", StateModeling, &ran),
	)

	sum := r.Run(context.Background())

	if len(ran) != 1 {
		t.Errorf("ran = %v, want only ingest before the failure", ran)
	}
	if sum.State != StateFailed || sum.Succeeded() {
		t.Errorf("state = %s, want failed", sum.State)
	}
	if len(sum.Stages) != 2 {
		t.Fatalf("stage results = %d, want 2", len(sum.Stages))
	}
	if !errors.Is(sum.Err(), boom) {
		t.Errorf("Err = %v, want the stage error", sum.Err())
	}
}

func TestRun_StateTransitions(t *testing.T) {
	t.Parallel()

	var r *Runner
	var observed []State
	mk := func(name string, state State) Stage {
		return Stage{Name: name, State: state, Run: func(context.Context) error {
			observed = append(observed, r.State())
			return nil
		}}
	}
	r = newTestRunner(
		mk("ingest", StateIngesting),
		mk("transform", StateTransforming),
		mk("model", StateModeling),
	)

	if r.State() != StateIdle {
		t.Errorf("initial state = %s, want idle", r.State())
	}
	r.Run(context.Background())

	want := []State{StateIngesting, StateTransforming, StateModeling}
	if len(observed) != 3 || observed[0] != want[0] || observed[1] != want[1] || observed[2] != want[2] {
		t.Errorf("observed states = %v, want %v", observed, want)
	}
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []string
	r := newTestRunner(okStage("ingest", StateIngesting, &ran))

	sum := r.Run(ctx)

	if len(ran) != 0 {
		t.Errorf("stages ran despite canceled context: %v", ran)
	}
	if sum.State != StateFailed {
		t.Errorf("state = %s, want failed", sum.State)
	}
	if len(sum.Stages) != 1 || !errors.Is(sum.Stages[0].Err, context.Canceled) {
		t.Errorf("stage results = %+v, want canceled ingest entry", sum.Stages)
	}
}

func TestRun_CanceledBetweenStages(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	r := newTestRunner(
		Stage{Name: "ingest", State: StateIngesting, Run: func(context.Context) error {
			ran = append(ran, "ingest")
			cancel()
			return nil
		}},
		okStage("transform", StateTransforming, &ran),
	)

	sum := r.Run(ctx)

	if len(ran) != 1 {
		t.Errorf("ran = %v, want cancel to stop the run after ingest", ran)
	}
	if sum.State != StateFailed || !errors.Is(sum.Err(), context.Canceled) {
		t.Errorf("state = %s err = %v, want failed on canceled context", sum.State, sum.Err())
	}
	if sum.Stages[0].Err != nil {
		t.Errorf("ingest result = %+v, want success before cancellation", sum.Stages[0])
	}
}
