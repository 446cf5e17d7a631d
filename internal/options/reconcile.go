package options

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/suggest"
)

var (
	changeNumberPattern = regexp.MustCompile(`^[0-9]+$`)
	depotRangePattern   = regexp.MustCompile(`^//[^@#]+[@#][^@#,]+(,[@#]?[^@#,]+)?$`)
)

// occurrence is one option found on the command line, in order. An unknown
// option keeps its own spelling in raw; bound is set when it took a value.
type occurrence struct {
	spec  Spec
	value string
	raw   string
	bound bool
}

// unknownFlagHint is added when an unknown option may have been meant to
// take the extra positional as its value.
const unknownFlagHint = "use --flag=value for options post does not know"

// Reconciler turns raw command line tokens into a domain.Invocation.
type Reconciler struct {
	grammar Grammar
}

// NewReconciler returns a reconciler for the given grammar.
func NewReconciler(g Grammar) *Reconciler {
	return &Reconciler{grammar: g}
}

// Reconcile parses args (without the program name). It is pure: the same
// args always produce the same Invocation or the same error.
func (r *Reconciler) Reconcile(args []string) (domain.Invocation, error) {
	occurrences, positionals, ambiguous, err := r.scan(args)
	if err != nil {
		return domain.Invocation{}, err
	}

	var inv domain.Invocation
	for _, o := range occurrences {
		applyIntercepted(&inv.Options, o)
	}

	// Help and version short-circuit everything else.
	if inv.Options.Help || inv.Options.Version {
		return domain.Invocation{Options: inv.Options}, nil
	}

	var actions []domain.Action
	var rest []string
	for _, p := range positionals {
		if a, ok := domain.ParseAction(p); ok {
			actions = append(actions, a)
			continue
		}
		rest = append(rest, p)
	}
	if len(actions) != 1 {
		return domain.Invocation{}, domain.ArgumentErrorf("Please provide exactly one action: %s", domain.ActionKeywords())
	}
	inv.Action = actions[0]

	rest = dedupe(rest)
	if len(rest) > 1 {
		reason := fmt.Sprintf("Please provide 1 action and at most 1 change reference (got %s)", strings.Join(rest, ", "))
		if ambiguous {
			reason += "; " + unknownFlagHint
		}
		return domain.Invocation{}, &domain.ArgumentError{Reason: reason}
	}
	if len(rest) == 1 {
		ref, err := classifyChangeRef(rest[0])
		if err != nil {
			return domain.Invocation{}, err
		}
		inv.ChangeRef = ref
	}

	if err := validate(inv); err != nil {
		return domain.Invocation{}, err
	}

	inv.Passthrough = passthrough(occurrences)
	if inv.Action != domain.ActionSubmit && !inv.ChangeRef.IsZero() {
		inv.Passthrough = append(inv.Passthrough, inv.ChangeRef.String())
	}
	return inv, nil
}

// scan splits tokens into option occurrences and positionals. A token is an
// option value only because of its position after the option that owns it.
// An unknown option takes the next token as its value unless that token
// could be an action or a change reference; ambiguous reports that such a
// token was left as a positional.
func (r *Reconciler) scan(args []string) (occurrences []occurrence, positionals []string, ambiguous bool, err error) {
	for i := 0; i < len(args); i++ {
		token := args[i]

		switch {
		case token == "--":
			positionals = append(positionals, args[i+1:]...)
			return occurrences, positionals, ambiguous, nil

		case strings.HasPrefix(token, "--"):
			name, inline, hasInline := strings.Cut(token[2:], "=")
			spec, ok := r.grammar.LookupLong(name)
			if !ok {
				o := occurrence{spec: r.grammar.Classify(token), raw: token}
				if !hasInline {
					i += bindUnknown(&o, args[i+1:], &ambiguous)
				}
				occurrences = append(occurrences, o)
				continue
			}
			o := occurrence{spec: spec, raw: token}
			switch {
			case spec.TakesValue && hasInline:
				o.value = inline
			case spec.TakesValue:
				if i+1 >= len(args) {
					return nil, nil, false, domain.ArgumentErrorf("option --%s requires a value", name)
				}
				i++
				o.value = args[i]
			case hasInline:
				return nil, nil, false, domain.ArgumentErrorf("option --%s does not take a value", name)
			}
			occurrences = append(occurrences, o)

		case strings.HasPrefix(token, "-") && len(token) > 1:
			consumed, err := r.scanShort(token, args[i+1:], &occurrences, &ambiguous)
			if err != nil {
				return nil, nil, false, err
			}
			i += consumed

		default:
			positionals = append(positionals, token)
		}
	}
	return occurrences, positionals, ambiguous, nil
}

// bindUnknown gives an unknown option the next token as its value when that
// token is neither an option, an action keyword nor a change reference. It
// returns the number of tokens consumed.
func bindUnknown(o *occurrence, following []string, ambiguous *bool) int {
	if len(following) == 0 {
		return 0
	}
	next := following[0]
	if strings.HasPrefix(next, "-") {
		return 0
	}
	if _, isAction := domain.ParseAction(next); isAction {
		return 0
	}
	if changeNumberPattern.MatchString(next) || depotRangePattern.MatchString(next) {
		*ambiguous = true
		return 0
	}
	o.value = next
	o.bound = true
	return 1
}

// scanShort handles a short option cluster such as "-d", "-dp" or "-r12345".
// It returns how many of the following tokens were consumed as a value.
func (r *Reconciler) scanShort(token string, following []string, occurrences *[]occurrence, ambiguous *bool) (int, error) {
	if _, ok := r.grammar.LookupShort(token[1]); !ok {
		o := occurrence{spec: r.grammar.Classify(token), raw: token}
		consumed := 0
		if len(token) == 2 {
			consumed = bindUnknown(&o, following, ambiguous)
		}
		*occurrences = append(*occurrences, o)
		return consumed, nil
	}

	for j := 1; j < len(token); j++ {
		spec, ok := r.grammar.LookupShort(token[j])
		if !ok {
			return 0, domain.ArgumentErrorf("unknown option -%c in %s", token[j], token)
		}
		o := occurrence{spec: spec, raw: "-" + string(token[j])}
		if !spec.TakesValue {
			*occurrences = append(*occurrences, o)
			continue
		}
		if j+1 < len(token) {
			o.value = token[j+1:]
			*occurrences = append(*occurrences, o)
			return 0, nil
		}
		if len(following) == 0 {
			return 0, domain.ArgumentErrorf("option -%c requires a value", token[j])
		}
		o.value = following[0]
		*occurrences = append(*occurrences, o)
		return 1, nil
	}
	return 0, nil
}

func applyIntercepted(opts *domain.InterceptedOptions, o occurrence) {
	switch o.spec.Name {
	case OptHelp:
		opts.Help = true
	case OptVersion:
		opts.Version = true
	case OptDebug:
		opts.Debug = true
	case OptServer:
		opts.Server = o.value
	case OptPublish:
		opts.Publish = true
	case OptShelve:
		opts.Shelve = true
	case OptDiffOnly:
		opts.DiffOnly = true
	case OptChangeOnly:
		opts.ChangeOnly = true
	case OptRID:
		opts.ReviewID = o.value
	case OptUsername:
		opts.Username = o.value
	case OptForce:
		opts.Force = true
	case OptEditChangelist:
		opts.EditChangelist = true
	case OptStat:
		opts.Stat = true
	}
}

// passthrough rebuilds the rbt argument list in command line order.
func passthrough(occurrences []occurrence) []string {
	args := []string{}
	for _, o := range occurrences {
		switch {
		case o.spec.Dest == Intercept:
			continue
		case o.spec.Name == "":
			args = append(args, o.raw)
			if o.bound {
				args = append(args, o.value)
			}
		default:
			args = append(args, o.spec.External)
			if o.spec.TakesValue {
				args = append(args, o.value)
			}
		}
	}
	return args
}

func validate(inv domain.Invocation) error {
	opts := inv.Options

	if inv.ChangeRef.IsZero() && opts.ReviewID == "" && inv.Action != domain.ActionCreate {
		return domain.ArgumentErrorf("Need a change list number")
	}
	if opts.DiffOnly && opts.ChangeOnly {
		return domain.ArgumentErrorf("--update-diff and --change-only are mutually exclusive")
	}
	if inv.ChangeRef.Kind == domain.ChangeRefDepotPath {
		if inv.Action == domain.ActionSubmit {
			return domain.ArgumentErrorf("submit requires a pending change list number, not a depot path: %s", inv.ChangeRef)
		}
		if opts.Shelve {
			return domain.ArgumentErrorf("--shelve requires a pending change list number, not a depot path: %s", inv.ChangeRef)
		}
	}
	return nil
}

func classifyChangeRef(token string) (domain.ChangeRef, error) {
	switch {
	case changeNumberPattern.MatchString(token):
		return domain.NumberRef(token), nil
	case depotRangePattern.MatchString(token):
		return domain.ChangeRef{Kind: domain.ChangeRefDepotPath, Value: token}, nil
	}

	reason := fmt.Sprintf("unrecognized argument %q: expected a change list number or a depot path with @ or # revisions", token)
	if suggestion := suggestAction(token); suggestion != "" {
		reason += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return domain.ChangeRef{}, &domain.ArgumentError{Reason: reason}
}

// suggestAction returns the action keyword closest to a stray token, if any.
func suggestAction(token string) string {
	keywords := make([]string, len(domain.Actions))
	for i, a := range domain.Actions {
		keywords[i] = a.String()
	}
	return suggest.Closest(token, keywords)
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
