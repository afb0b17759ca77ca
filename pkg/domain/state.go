package domain

import "fmt"

// DocumentState is the lifecycle value of a single document instance.
type DocumentState int

const (
	StatePending   DocumentState = iota // Content is still resolving
	StatePrepared                       // Ready to be bound to a view
	StateInflated                       // Bound to a view, components inflated
	StateDisplayed                      // First layout pass completed
	StateFinished                       // Explicitly destroyed
	StateError                          // Unrecoverable failure
)

var stateNames = map[DocumentState]string{
	StatePending:   "pending",
	StatePrepared:  "prepared",
	StateInflated:  "inflated",
	StateDisplayed: "displayed",
	StateFinished:  "finished",
	StateError:     "error",
}

func (s DocumentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DocumentState(%d)", int(s))
}

// IsRendered reports whether the document is bound to a view.
func (s DocumentState) IsRendered() bool {
	return s == StateInflated || s == StateDisplayed
}

// IsTerminal reports whether no further transition is possible.
func (s DocumentState) IsTerminal() bool {
	return s == StateFinished || s == StateError
}

// ParseDocumentState is the inverse of String.
func ParseDocumentState(name string) (DocumentState, error) {
	for state, n := range stateNames {
		if n == name {
			return state, nil
		}
	}
	return StatePending, fmt.Errorf("unknown document state: %q", name)
}

// DisplayState describes how visible the current document is to the user.
type DisplayState string

const (
	DisplayHidden     DisplayState = "hidden"
	DisplayBackground DisplayState = "background"
	DisplayForeground DisplayState = "foreground"
)

// Valid reports whether the display state is one of the known values.
func (d DisplayState) Valid() bool {
	switch d {
	case DisplayHidden, DisplayBackground, DisplayForeground:
		return true
	}
	return false
}
