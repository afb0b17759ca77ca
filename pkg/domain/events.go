package domain

import "time"

// Milestone marks a point of interest in a document's life.
type Milestone string

const (
	MilestoneReceived Milestone = "document_received"
	MilestonePrepared Milestone = "document_prepared"
	MilestoneRendered Milestone = "document_rendered"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Token     string    `json:"token"`
}

// StateEvent is emitted on every document state transition.
type StateEvent struct {
	EventBase
	From DocumentState `json:"from"`
	To   DocumentState `json:"to"`
}

// MilestoneEvent is emitted when a document reaches a milestone.
type MilestoneEvent struct {
	EventBase
	Milestone Milestone     `json:"milestone"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
}

// CommandEvent is emitted when a command batch settles.
type CommandEvent struct {
	EventBase
	Queued    bool  `json:"queued"`
	Completed bool  `json:"completed"`
	Err       error `json:"-"`
}

// BackstackEvent is emitted when the backstack changes.
type BackstackEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // push, restore, clear, discard
	ID        string    `json:"id,omitempty"`
	Depth     int       `json:"depth"`
}

// LifecycleHooks defines callbacks for viewhost observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnStateChange func(*StateEvent)
	OnMilestone   func(*MilestoneEvent)
	OnCommand     func(*CommandEvent)
	OnBackstack   func(*BackstackEvent)
}

func (h LifecycleHooks) EmitState(token string, from, to DocumentState) {
	if h.OnStateChange != nil {
		h.OnStateChange(&StateEvent{EventBase: EventBase{Timestamp: time.Now(), Token: token}, From: from, To: to})
	}
}

func (h LifecycleHooks) EmitMilestone(token string, m Milestone, elapsed time.Duration) {
	if h.OnMilestone != nil {
		h.OnMilestone(&MilestoneEvent{EventBase: EventBase{Timestamp: time.Now(), Token: token}, Milestone: m, Elapsed: elapsed})
	}
}

func (h LifecycleHooks) EmitCommand(token string, queued, completed bool, err error) {
	if h.OnCommand != nil {
		h.OnCommand(&CommandEvent{EventBase: EventBase{Timestamp: time.Now(), Token: token}, Queued: queued, Completed: completed, Err: err})
	}
}

func (h LifecycleHooks) EmitBackstack(action, id string, depth int) {
	if h.OnBackstack != nil {
		h.OnBackstack(&BackstackEvent{Timestamp: time.Now(), Action: action, ID: id, Depth: depth})
	}
}
