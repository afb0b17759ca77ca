package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/logging"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/ports"
)

// Runner plays scripts against a Viewhost.
type Runner struct {
	Viewhost *viewhost.Viewhost
	// NewView creates the surface the script binds to.
	NewView func(name string) ports.View
	// Output receives one line per step. Nil discards.
	Output io.Writer
	Logger *slog.Logger
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index     int
	Kind      string
	Token     string
	State     string
	Restored  bool
	Completed bool
	Err       error
}

// Run executes every step in order and stops at the first failed expectation.
// A step error is only fatal when the step has no expectation about it.
func (r *Runner) Run(ctx context.Context, s *Script) ([]StepResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	out := r.Output
	if out == nil {
		out = io.Discard
	}
	logger = logger.With("scenario", s.Name)

	r.Viewhost.Bind(r.NewView(s.View))

	results := make([]StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.step(ctx, s, step)
		res.Index = i + 1
		res.Kind = step.Kind()
		if h := r.Viewhost.Current(); h != nil {
			res.Token = h.Token()
			if state, err := h.State(); err == nil {
				res.State = state.String()
			}
		}
		results = append(results, res)

		fmt.Fprintln(out, res.String())
		logger.Debug("step finished", "step", res.Index, "kind", res.Kind, "token", res.Token, "err", res.Err)

		if err := r.check(step.Expect, res); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Kind, err)
		}
		if res.Err != nil && (step.Expect == nil || step.Expect.Error == "") {
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Kind, res.Err)
		}
	}
	return results, nil
}

func (r *Runner) step(ctx context.Context, s *Script, step Step) StepResult {
	var res StepResult
	vh := r.Viewhost
	switch {
	case step.Render != nil:
		res.Err = r.render(ctx, s, step.Render)
	case step.Execute != nil:
		res.Err = r.execute(ctx, step.Execute, &res)
	case step.Back != nil:
		if step.Back.Type == "" {
			res.Restored, res.Err = vh.HandleBack(ctx)
		} else {
			res.Restored, res.Err = vh.Backstack().GoBack(ctx, backstack.GoBackParams{
				BackType:  step.Back.Type,
				BackValue: step.Back.Value,
			})
		}
	case step.Clear:
		vh.Backstack().Clear()
	case step.Configure != nil:
		res.Err = vh.ConfigurationChange(step.Configure)
	case step.Display != "":
		res.Err = vh.UpdateDisplayState(step.Display)
	case step.Pause:
		vh.PauseDocument()
	case step.Resume:
		vh.ResumeDocument()
	case step.Wait > 0:
		select {
		case <-time.After(step.Wait):
		case <-ctx.Done():
			res.Err = ctx.Err()
		}
	}
	return res
}

func (r *Runner) render(ctx context.Context, s *Script, step *RenderStep) error {
	doc, err := s.documentJSON(step)
	if err != nil {
		return err
	}
	data, err := toJSON(step.Data)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	_, err = r.Viewhost.Render(ctx, viewhost.RenderRequest{
		PrepareRequest: viewhost.PrepareRequest{
			Document:    doc,
			Data:        data,
			Token:       step.Token,
			Environment: step.Env,
		},
	})
	return err
}

func (r *Runner) execute(ctx context.Context, step *ExecuteStep, res *StepResult) error {
	h := r.Viewhost.Current()
	if h == nil {
		return fmt.Errorf("no current document")
	}
	commands, err := toJSON(step.Commands)
	if err != nil {
		return err
	}
	if step.Async {
		go func() {
			_, _ = h.ExecuteCommands(context.WithoutCancel(ctx), json.RawMessage(commands))
		}()
		res.Completed = true
		return nil
	}
	res.Completed, err = h.ExecuteCommands(ctx, json.RawMessage(commands))
	return err
}

func (r *Runner) check(exp *Expectation, res StepResult) error {
	if exp == nil {
		return nil
	}
	var failures []string
	if exp.Current != "" && exp.Current != res.Token {
		failures = append(failures, fmt.Sprintf("current is %q, want %q", res.Token, exp.Current))
	}
	if exp.State != "" && exp.State != res.State {
		failures = append(failures, fmt.Sprintf("state is %q, want %q", res.State, exp.State))
	}
	if exp.Backstack != nil {
		if ids := r.Viewhost.Backstack().IDs(); !slices.Equal(ids, exp.Backstack) {
			failures = append(failures, fmt.Sprintf("backstack is %v, want %v", ids, exp.Backstack))
		}
	}
	if exp.Restored != nil && *exp.Restored != res.Restored {
		failures = append(failures, fmt.Sprintf("restored is %v, want %v", res.Restored, *exp.Restored))
	}
	if exp.Completed != nil && *exp.Completed != res.Completed {
		failures = append(failures, fmt.Sprintf("completed is %v, want %v", res.Completed, *exp.Completed))
	}
	if exp.Error != "" && (res.Err == nil || !strings.Contains(res.Err.Error(), exp.Error)) {
		failures = append(failures, fmt.Sprintf("error is %v, want one containing %q", res.Err, exp.Error))
	}
	if len(failures) > 0 {
		return fmt.Errorf("expectation failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (res StepResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d %-9s", res.Index, res.Kind)
	if res.Token != "" {
		fmt.Fprintf(&b, " current=%s state=%s", res.Token, res.State)
	}
	switch res.Kind {
	case "back":
		fmt.Fprintf(&b, " restored=%v", res.Restored)
	case "execute":
		fmt.Fprintf(&b, " completed=%v", res.Completed)
	}
	if res.Err != nil {
		fmt.Fprintf(&b, " err=%q", res.Err.Error())
	}
	return b.String()
}

