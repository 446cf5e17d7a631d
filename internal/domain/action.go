package domain

import "strings"

// Action is one of the four verbs the post command understands.
type Action int

const (
	// ActionNone means no action keyword was given; the command prints help.
	ActionNone Action = iota
	ActionCreate
	ActionEdit
	ActionSubmit
	ActionDiff
)

// Actions lists the valid actions in the order they appear in usage text.
var Actions = []Action{ActionCreate, ActionEdit, ActionSubmit, ActionDiff}

// String returns the keyword for the action.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionEdit:
		return "edit"
	case ActionSubmit:
		return "submit"
	case ActionDiff:
		return "diff"
	default:
		return ""
	}
}

// ParseAction returns the action named by keyword, or false if keyword is not an action.
func ParseAction(keyword string) (Action, bool) {
	for _, a := range Actions {
		if a.String() == keyword {
			return a, true
		}
	}
	return ActionNone, false
}

// ActionKeywords returns the action keywords joined as "create | edit | submit | diff".
func ActionKeywords() string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = a.String()
	}
	return strings.Join(names, " | ")
}

// ChangeRefKind distinguishes a pending change list number from a depot path range.
type ChangeRefKind int

const (
	ChangeRefNone ChangeRefKind = iota
	ChangeRefNumber
	ChangeRefDepotPath
)

// ChangeRef identifies the content a review is about: a numbered change list
// or a depot path with revision or range markers.
type ChangeRef struct {
	Kind  ChangeRefKind
	Value string
}

// IsZero reports whether no change reference was given.
func (c ChangeRef) IsZero() bool {
	return c.Kind == ChangeRefNone
}

// IsNumber reports whether the reference is a change list number.
func (c ChangeRef) IsNumber() bool {
	return c.Kind == ChangeRefNumber
}

// String returns the reference as it appears on the command line.
func (c ChangeRef) String() string {
	return c.Value
}

// NumberRef returns a ChangeRef for the change list number n.
func NumberRef(n string) ChangeRef {
	return ChangeRef{Kind: ChangeRefNumber, Value: n}
}

// InterceptedOptions holds the options the post command acts on itself.
// Debug, Username and Server are recorded here and also forwarded to rbt.
type InterceptedOptions struct {
	Shelve         bool
	Publish        bool
	Force          bool
	EditChangelist bool
	ReviewID       string
	Debug          bool
	Username       string
	Server         string
	DiffOnly       bool
	ChangeOnly     bool
	Stat           bool
	Help           bool
	Version        bool
}

// Invocation is the reconciled form of one command line. It is built once
// per run and never mutated afterwards.
type Invocation struct {
	Action      Action
	ChangeRef   ChangeRef
	Options     InterceptedOptions
	Passthrough []string
}
