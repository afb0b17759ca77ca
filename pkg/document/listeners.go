package document

import (
	"github.com/aretw0/viewhost/pkg/domain"
)

type registered struct {
	id       ListenerID
	listener Listener
}

// RegisterListener adds l and schedules a replay of the state at registration time.
func (c *Context) RegisterListener(l Listener) (ListenerID, error) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return 0, domain.ErrContextDestroyed
	}
	id := ListenerID(c.listenerSeq.Inc())
	c.listeners[id] = l
	state := c.state
	// Posting under the lock orders the replay before any later transition.
	c.host.Scheduler.Post(func() {
		if c.isRegistered(id) {
			l.OnStateUpdate(c.Handle(), state)
		}
	})
	c.mu.Unlock()
	return id, nil
}

// UnregisterListener removes a listener. Notifications already scheduled for it are dropped.
func (c *Context) UnregisterListener(id ListenerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return domain.ErrContextDestroyed
	}
	delete(c.listeners, id)
	return nil
}

func (c *Context) isRegistered(id ListenerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.listeners[id]
	return ok
}

// notifyLocked delivers state to the current listeners as a single scheduled
// task. Listeners removed before the task runs are skipped. c.mu must be held.
func (c *Context) notifyLocked(state domain.DocumentState) {
	listeners := c.snapshotListenersLocked()
	if len(listeners) == 0 {
		return
	}
	c.host.Scheduler.Post(func() {
		handle := c.Handle()
		for _, r := range listeners {
			if c.isRegistered(r.id) {
				r.listener.OnStateUpdate(handle, state)
			}
		}
	})
}
