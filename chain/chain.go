package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/executor"
)

const (
	StepPending   = "pending"
	StepRunning   = "running"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

const (
	RunPending       = "pending"
	RunRunning       = "running"
	RunCompleted     = "completed"
	RunFailedPartial = "failed-partial"
	RunFailedFatal   = "failed-fatal"
)

type StepResult struct {
	AgentId     string    `json:"agent_id"`
	Status      string    `json:"status"`
	Output      string    `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Run is one execution of an ordered agent list. It is mutated by the
// launcher while in flight and never touched again once terminal.
type Run struct {
	RunId       string       `json:"run_id"`
	AgentIds    []string     `json:"agent_ids"`
	Status      string       `json:"status"`
	Steps       []StepResult `json:"step_results"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
}

type ChainError struct {
	Detail string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain rejected: %s", e.Detail)
}

type Launcher struct {
	executor executor.Executor
	options  Options
}

// Launch executes the agents strictly in order. A failing step is recorded
// and execution continues; only pre-execution validation is fatal. The output
// of each completed step becomes the input of the next.
func (l *Launcher) Launch(ctx context.Context, agents []agent.Config, input string) (*Run, error) {
	run := &Run{
		RunId:     uuid.New().String(),
		Status:    RunPending,
		StartedAt: time.Now().UTC(),
	}

	if len(agents) == 0 {
		run.Status = RunFailedFatal
		run.CompletedAt = time.Now().UTC()
		return run, &ChainError{Detail: "agent list is empty"}
	}

	run.Steps = make([]StepResult, len(agents))
	for i, config := range agents {
		run.AgentIds = append(run.AgentIds, config.AgentId)
		run.Steps[i] = StepResult{
			AgentId: config.AgentId,
			Status:  StepPending,
		}
	}

	run.Status = RunRunning

	current := input
	failed := 0

	for i, config := range agents {
		if err := ctx.Err(); err != nil {
			// cancellation is only honored between steps
			for j := i; j < len(agents); j++ {
				run.Steps[j].Status = StepFailed
				run.Steps[j].Error = err.Error()
			}
			failed += len(agents) - i
			break
		}

		step := &run.Steps[i]
		step.Status = StepRunning
		step.StartedAt = time.Now().UTC()

		output, err := l.runStep(ctx, config, current)

		step.CompletedAt = time.Now().UTC()

		if err != nil {
			step.Status = StepFailed
			step.Error = err.Error()
			failed++
			continue
		}

		step.Status = StepCompleted
		step.Output = output
		current = output
	}

	run.CompletedAt = time.Now().UTC()

	if failed == 0 {
		run.Status = RunCompleted
	} else {
		run.Status = RunFailedPartial
	}

	return run, nil
}

func (l *Launcher) runStep(ctx context.Context, config agent.Config, input string) (string, error) {
	stepCtx := ctx
	if l.options.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, l.options.StepTimeout)
		defer cancel()
	}

	type stepOutput struct {
		output string
		err    error
	}

	done := make(chan stepOutput, 1)

	go func() {
		output, err := l.executor.Run(stepCtx, config, input)
		done <- stepOutput{output: output, err: err}
	}()

	select {
	case result := <-done:
		return result.output, result.err
	case <-stepCtx.Done():
		// the parent being cancelled also fires the step context
		if ctx.Err() != nil {
			return "", fmt.Errorf("step cancelled: %v", context.Cause(ctx))
		}
		return "", fmt.Errorf("step timed out after %s", l.options.StepTimeout)
	}
}

func NewLauncher(executor executor.Executor, opts ...Option) *Launcher {
	if executor == nil {
		panic("executor is required")
	}

	options := NewOptions(opts...)

	return &Launcher{
		executor: executor,
		options:  options,
	}
}
