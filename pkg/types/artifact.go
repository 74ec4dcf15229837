package types

import "time"

type ControlStyle string

const (
	ControlPrimary ControlStyle = "primary"
	ControlSuccess ControlStyle = "success"
	ControlDanger  ControlStyle = "danger"
)

const (
	ColorPanel    = 0xff69b4
	ColorPending  = 0xffa500
	ColorApproved = 0x00ff00
	ColorRejected = 0xff0000
)

// Control is an interactive element attached to a message. ID is the opaque
// identifier delivered back when the control is activated.
type Control struct {
	ID    string
	Label string
	Style ControlStyle
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// ReviewArtifact is the rendered form of a submission in the review channel.
// It is rewritten in place when a moderator resolves it.
type ReviewArtifact struct {
	Title        string
	Description  string
	Color        int
	Fields       []Field
	ThumbnailURL string
	Footer       string
	Timestamp    time.Time
	Controls     []Control
}

// Clone returns a deep copy so callers can mutate fields and controls freely.
func (a ReviewArtifact) Clone() ReviewArtifact {
	out := a
	out.Fields = append([]Field(nil), a.Fields...)
	out.Controls = append([]Control(nil), a.Controls...)
	return out
}

// Resolved reports whether the decision controls have been removed.
func (a ReviewArtifact) Resolved() bool {
	return len(a.Controls) == 0
}
