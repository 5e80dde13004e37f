// Package pipeline sequences the batch stages of a run and tracks its
// state. Stages run strictly one after another; the first failure
// short-circuits the run into the failed state and later stages never
// start. A Runner drives a single run and is not safe for concurrent
// use.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"churnetl/internal/metrics"
)

// State is the runner's position in the run lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateIngesting    State = "ingesting"
	StateTransforming State = "transforming"
	StateModeling     State = "modeling"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Stage is one sequential unit of work. State names the runner state
// entered while Run executes.
type Stage struct {
	Name  string
	State State
	Run   func(ctx context.Context) error
}

// StageResult records one executed (or aborted) stage.
type StageResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Summary is the terminal outcome of a run, consumed by main for the
// exit code.
type Summary struct {
	RunID    string
	State    State
	Stages   []StageResult
	Duration time.Duration
}

// Succeeded reports whether every stage completed.
func (s *Summary) Succeeded() bool { return s.State == StateSucceeded }

// Err returns the error of the failing stage, nil on success.
func (s *Summary) Err() error {
	for _, st := range s.Stages {
		if st.Err != nil {
			return st.Err
		}
	}
	return nil
}

// Runner executes stages in order and exposes the current state.
type Runner struct {
	log    *zap.SugaredLogger
	job    string
	stages []Stage
	state  State

	now   func() time.Time
	newID func() string
}

// NewRunner returns an idle Runner for the given stages.
func NewRunner(log *zap.SugaredLogger, job string, stages ...Stage) *Runner {
	return &Runner{
		log:    log,
		job:    job,
		stages: stages,
		state:  StateIdle,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// State returns the runner's current state.
func (r *Runner) State() State { return r.state }

// Run executes the stages in order. Each stage's outcome and wall-clock
// duration are logged and recorded as metrics. A canceled context stops
// the run before the next stage starts.
func (r *Runner) Run(ctx context.Context) *Summary {
	sum := &Summary{RunID: r.newID()}
	started := r.now()

	r.log.Infow("pipeline run started", "run_id", sum.RunID, "job", r.job, "stages", len(r.stages))

	for _, st := range r.stages {
		if err := ctx.Err(); err != nil {
			r.state = StateFailed
			sum.Stages = append(sum.Stages, StageResult{Name: st.Name, Err: err})
			r.log.Errorw("pipeline run canceled", "run_id", sum.RunID, "stage", st.Name, "error", err.Error())
			break
		}

		r.state = st.State
		stageStart := r.now()
		r.log.Infow("stage started", "run_id", sum.RunID, "stage", st.Name)

		err := st.Run(ctx)
		d := r.now().Sub(stageStart)
		metrics.RecordStage(r.job, st.Name, err, d)
		sum.Stages = append(sum.Stages, StageResult{Name: st.Name, Duration: d, Err: err})

		if err != nil {
			r.state = StateFailed
			r.log.Errorw("stage failed",
				"run_id", sum.RunID,
				"stage", st.Name,
				"duration", d.Truncate(time.Millisecond).String(),
				"error", err.Error(),
			)
			break
		}
		r.log.Infow("stage completed",
			"run_id", sum.RunID,
			"stage", st.Name,
			"duration", d.Truncate(time.Millisecond).String(),
		)
	}

	if r.state != StateFailed {
		r.state = StateSucceeded
	}
	sum.State = r.state
	sum.Duration = r.now().Sub(started)

	r.log.Infow("pipeline run finished",
		"run_id", sum.RunID,
		"state", string(sum.State),
		"stages_run", len(sum.Stages),
		"duration", sum.Duration.Truncate(time.Millisecond).String(),
	)
	return sum
}
