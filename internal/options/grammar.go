// Package options maps the post command line onto an action, a change
// reference, the options post handles itself, and the arguments forwarded to rbt.
package options

import "strings"

// Destination says what the reconciler does with a recognized option.
type Destination int

const (
	// Intercept options are consumed by post and never forwarded.
	Intercept Destination = iota
	// Shared options are recorded by post and also forwarded to rbt.
	Shared
	// Passthrough options are forwarded to rbt untouched.
	Passthrough
)

// Group is the logical action group an option belongs to. It only affects
// help output; options are accepted with any action.
type Group int

const (
	GroupGlobal Group = iota
	GroupCreateEdit
	GroupSubmit
	GroupDiff
)

// Title returns the heading used for the group in help output.
func (g Group) Title() string {
	switch g {
	case GroupCreateEdit:
		return "Create and Edit Options"
	case GroupSubmit:
		return "Submit Options"
	case GroupDiff:
		return "Diff Options"
	default:
		return "Global Options"
	}
}

// Groups lists the groups in help order.
var Groups = []Group{GroupGlobal, GroupCreateEdit, GroupSubmit, GroupDiff}

// Spec describes one recognized option.
type Spec struct {
	// Name is the internal option name.
	Name string
	// Long is the canonical long spelling without dashes.
	Long string
	// Aliases are additional long spellings without dashes.
	Aliases []string
	// Short is the single letter spelling, or 0.
	Short byte
	// TakesValue is true for options with arity 1.
	TakesValue bool
	Dest       Destination
	Group      Group
	// External is the spelling forwarded to rbt. Empty for Intercept options.
	External string
	Metavar  string
	Usage    string
}

// Option names used by the reconciler.
const (
	OptHelp           = "help"
	OptVersion        = "version"
	OptDebug          = "debug"
	OptServer         = "server"
	OptPublish        = "publish"
	OptShelve         = "shelve"
	OptOutputDiff     = "output_diff"
	OptTargetGroups   = "target_groups"
	OptTargetPeople   = "target_people"
	OptBranch         = "branch"
	OptDiffOnly       = "diff_only"
	OptChangeOnly     = "change_only"
	OptTestingDone    = "testing_done"
	OptTestingFile    = "testing_file"
	OptSummary        = "summary"
	OptDescription    = "description"
	OptBugsClosed     = "bugs_closed"
	OptRID            = "rid"
	OptUsername       = "username"
	OptForce          = "force"
	OptEditChangelist = "edit_changelist"
	OptStat           = "stat"
)

// Grammar is the table of recognized options.
type Grammar struct {
	specs []Spec
}

// DefaultGrammar returns the option table for the post command.
func DefaultGrammar() Grammar {
	return Grammar{specs: []Spec{
		{Name: OptHelp, Long: "help", Short: 'h', Dest: Intercept, Group: GroupGlobal,
			Usage: "Show this help and exit."},
		{Name: OptVersion, Long: "version", Short: 'v', Dest: Intercept, Group: GroupGlobal,
			Usage: "Display version and exit."},
		{Name: OptDebug, Long: "debug", Short: 'd', Dest: Shared, Group: GroupGlobal, External: "--debug",
			Usage: "Display debug output."},
		{Name: OptServer, Long: "server", TakesValue: true, Dest: Shared, Group: GroupGlobal, External: "--server",
			Metavar: "url", Usage: "Use specified server. Default is the REVIEWBOARD_URL entry in your .reviewboardrc file."},

		{Name: OptPublish, Long: "publish", Short: 'p', Dest: Intercept, Group: GroupCreateEdit,
			Usage: "Publish the review."},
		{Name: OptShelve, Long: "shelve", Dest: Intercept, Group: GroupCreateEdit,
			Usage: "Create or update p4 shelve for the files in the review."},
		{Name: OptOutputDiff, Long: "output-diff", Short: 'n', Dest: Passthrough, Group: GroupCreateEdit, External: "--output-diff",
			Usage: "Output diff to console and exit. Do not post."},
		{Name: OptTargetGroups, Long: "target-groups", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--target-groups",
			Metavar: "group[,groups]", Usage: "Assign or replace Review Board groups for this review."},
		{Name: OptTargetPeople, Long: "target-people", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--target-people",
			Metavar: "user[,users]", Usage: "Assign or replace reviewers for this review."},
		{Name: OptBranch, Long: "branch", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--branch",
			Metavar: "branch", Usage: "Assign or replace branches for this review. Accepts any string."},
		{Name: OptDiffOnly, Long: "update-diff", Dest: Shared, Group: GroupCreateEdit, External: "--update-diff",
			Usage: "Upload a new diff, but do not update information from the change list."},
		{Name: OptChangeOnly, Long: "change-only", Dest: Shared, Group: GroupCreateEdit, External: "--change-only",
			Usage: "Update info from the change list, but do not upload a diff."},
		{Name: OptTestingDone, Long: "testing-done", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--testing-done",
			Metavar: "text", Usage: "Description of testing done."},
		{Name: OptTestingFile, Long: "testing-done-file", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--testing-done-file",
			Metavar: "path", Usage: "Text file containing description of testing done."},
		{Name: OptSummary, Long: "summary", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--summary",
			Metavar: "text", Usage: "Summary for the review. Default is the change list description."},
		{Name: OptDescription, Long: "description", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--description",
			Metavar: "text", Usage: "Description of the review. Default is the change list description."},
		{Name: OptBugsClosed, Long: "bugs-closed", TakesValue: true, Dest: Passthrough, Group: GroupCreateEdit, External: "--bugs-closed",
			Metavar: "bug[,bugs]", Usage: "Bugs closed by this change. Default is the jobs attached to the change list."},
		{Name: OptRID, Long: "rid", Aliases: []string{"review-request-id"}, Short: 'r', TakesValue: true, Dest: Intercept, Group: GroupCreateEdit,
			Metavar: "id", Usage: "Use review ID instead of looking it up from the change list number."},
		{Name: OptUsername, Long: "username", TakesValue: true, Dest: Shared, Group: GroupCreateEdit, External: "--username",
			Metavar: "user", Usage: "Switch to this Review Board username. Useful if different from your p4 user."},

		{Name: OptForce, Long: "force", Short: 'f', Dest: Intercept, Group: GroupSubmit,
			Usage: "Submit even if the review doesn't meet all requirements."},
		{Name: OptEditChangelist, Long: "edit-changelist", Short: 'e', Dest: Intercept, Group: GroupSubmit,
			Usage: "Edit the change list before submitting."},

		{Name: OptStat, Long: "stat", Dest: Intercept, Group: GroupDiff,
			Usage: "Print a per-file summary instead of the diff."},
	}}
}

// Specs returns the option table in declaration order.
func (g Grammar) Specs() []Spec {
	return g.specs
}

// LookupLong finds the option spelled --name.
func (g Grammar) LookupLong(name string) (Spec, bool) {
	for _, s := range g.specs {
		if s.Long == name {
			return s, true
		}
		for _, alias := range s.Aliases {
			if alias == name {
				return s, true
			}
		}
	}
	return Spec{}, false
}

// LookupShort finds the option spelled -c.
func (g Grammar) LookupShort(c byte) (Spec, bool) {
	if c == 0 {
		return Spec{}, false
	}
	for _, s := range g.specs {
		if s.Short == c {
			return s, true
		}
	}
	return Spec{}, false
}

// Classify returns the spec for a flag token such as "--server", "--server=url"
// or "-d". Unknown flags come back as a Passthrough spec whose External is the
// token itself, so they are forwarded to rbt unchanged.
func (g Grammar) Classify(token string) Spec {
	switch {
	case strings.HasPrefix(token, "--"):
		name, _, _ := strings.Cut(token[2:], "=")
		if s, ok := g.LookupLong(name); ok {
			return s
		}
	case strings.HasPrefix(token, "-") && len(token) > 1:
		if s, ok := g.LookupShort(token[1]); ok {
			return s
		}
	}
	return Spec{Dest: Passthrough, Group: GroupGlobal, External: token}
}
