// Package plan computes the filesystem actions needed to rename one media
// file and its associates, and resolves target-path conflicts.
package plan

// ActionKind classifies one planned filesystem operation.
type ActionKind int

const (
	ActionRename ActionKind = iota // same directory, new name
	ActionMove                     // different directory
)

func (k ActionKind) String() string {
	switch k {
	case ActionRename:
		return "rename"
	case ActionMove:
		return "move"
	default:
		return "unknown"
	}
}

// Action is one scheduled filesystem operation. Actions are created by the
// planner and consumed, never mutated, by the executor.
type Action struct {
	OriginalPath string
	NewPath      string
	Kind         ActionKind
}

// Status is the outcome of planning one media batch.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusConflictUnresolved
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusConflictUnresolved:
		return "conflict_unresolved"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Plan describes the changes for one media file and its associates.
// Invariant on success: all action targets are mutually distinct and no
// target equals another action's original path.
type Plan struct {
	ID         string
	SourcePath string
	Status     Status
	Message    string
	Actions    []Action
	// CreateDir is the directory the executor must create before staging,
	// empty when no directory creation is needed.
	CreateDir string
}

// ChangeCount returns the number of file actions in the plan. Directory
// creation travels via CreateDir and is not counted.
func (p *Plan) ChangeCount() int {
	return len(p.Actions)
}
