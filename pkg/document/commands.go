package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/viewhost/pkg/domain"
)

type pendingCommand struct {
	commands json.RawMessage
	enqueued time.Time
	done     chan commandResult
}

type commandResult struct {
	completed bool
	err       error
}

func (p *pendingCommand) settle(completed bool, err error) {
	p.done <- commandResult{completed: completed, err: err}
}

// ExecuteCommands runs a command batch against the document.
//
// While the document is pending, prepared, unbound, or still draining earlier
// commands, the batch is queued and runs in arrival order once the document is
// rendered. The result is true when the batch completed and false when it was
// cancelled. Cancelling ctx abandons the wait only; a queued batch still runs.
func (c *Context) ExecuteCommands(ctx context.Context, commands json.RawMessage) (bool, error) {
	if err := validateCommands(commands); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.destroyed || c.state.IsTerminal() {
		state := c.state
		c.mu.Unlock()
		return false, &domain.StateConflictError{Op: "execute commands", State: state}
	}
	if c.saved || !c.state.IsRendered() || c.draining || len(c.queue) > 0 {
		p := &pendingCommand{commands: commands, enqueued: time.Now(), done: make(chan commandResult, 1)}
		c.queue = append(c.queue, p)
		depth := len(c.queue)
		state := c.state
		c.mu.Unlock()

		c.logger.Info("queuing commands", "state", state, "depth", depth)
		c.kickDrain()
		select {
		case r := <-p.done:
			c.host.Hooks.EmitCommand(c.token, true, r.completed, r.err)
			return r.completed, r.err
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	renderer := c.renderer
	c.mu.Unlock()

	completed, err := renderer.ExecuteCommands(ctx, commands)
	c.host.Hooks.EmitCommand(c.token, false, completed, err)
	return completed, err
}

// CancelExecution terminates the running command batch, if any.
func (c *Context) CancelExecution() error {
	renderer, err := c.liveRenderer("cancel execution")
	if err != nil {
		return err
	}
	renderer.CancelExecution()
	return nil
}

// PendingCommands returns the number of queued command batches.
func (c *Context) PendingCommands() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Context) kickDrain() {
	c.mu.Lock()
	drain := c.startDrainLocked()
	c.mu.Unlock()
	if drain {
		go c.drain()
	}
}

// startDrainLocked claims the drain when one is due. c.mu must be held.
func (c *Context) startDrainLocked() bool {
	if c.draining || len(c.queue) == 0 || c.destroyed || c.saved || !c.state.IsRendered() {
		return false
	}
	c.draining = true
	return true
}

// drain executes queued batches one at a time until the queue is empty or the
// document stops being rendered.
func (c *Context) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 || c.destroyed || c.saved || !c.state.IsRendered() {
			c.draining = false
			c.mu.Unlock()
			return
		}
		p := c.queue[0]
		c.queue = c.queue[1:]
		renderer := c.renderer
		c.mu.Unlock()

		c.logger.Debug("executing queued commands", "waited", time.Since(p.enqueued))
		completed, err := renderer.ExecuteCommands(context.Background(), p.commands)
		p.settle(completed, err)
	}
}

func (c *Context) reject(pending []*pendingCommand, state domain.DocumentState) {
	for _, p := range pending {
		p.settle(false, &domain.StateConflictError{Op: "execute commands", State: state})
	}
}

func validateCommands(commands json.RawMessage) error {
	trimmed := bytes.TrimSpace(commands)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", domain.ErrMalformedCommand)
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: invalid JSON", domain.ErrMalformedCommand)
	}
	if trimmed[0] != '[' && trimmed[0] != '{' {
		return fmt.Errorf("%w: expected an array or object", domain.ErrMalformedCommand)
	}
	return nil
}
