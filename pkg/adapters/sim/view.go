package sim

import "go.uber.org/atomic"

// View is an in-process view surface.
type View struct {
	name      string
	connected atomic.Bool
}

func NewView(name string) *View {
	v := &View{name: name}
	v.connected.Store(true)
	return v
}

func (v *View) Name() string    { return v.name }
func (v *View) Connected() bool { return v.connected.Load() }

// Disconnect detaches the view from its window; binding to it fails afterwards.
func (v *View) Disconnect() { v.connected.Store(false) }
