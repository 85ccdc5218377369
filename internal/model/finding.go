package model

const (
	// SeverityCritical marks findings that should block a change outright.
	SeverityCritical = "critical"
	// SeverityWarning marks findings that merit review but are not
	// necessarily blocking on their own.
	SeverityWarning = "warning"
)

// Finding is one checker's detection. The reason is a stable machine token
// used by policy classification; the message is diagnostic text for humans
// and carries no decision weight. Multiple findings may share a reason.
type Finding struct {
	Checker  string `json:"checker"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}
