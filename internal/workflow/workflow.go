// Package workflow carries out the create, edit, submit and diff actions
// against Perforce, rbt and the Review Board server.
package workflow

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sallan/RBScript/internal/diff"
	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/p4"
	"github.com/sallan/RBScript/internal/reviewboard"
	"github.com/sallan/RBScript/internal/terminal"
)

// VCS is the Perforce side of a workflow.
type VCS interface {
	Connect(ctx context.Context) error
	NewChange(ctx context.Context) (string, error)
	Jobs(ctx context.Context, n string) ([]string, error)
	Shelve(ctx context.Context, n string) error
	Shelved(ctx context.Context, n string) (bool, error)
	DeleteShelf(ctx context.Context, n string) error
	VerifyOwner(ctx context.Context, n string) error
	EditChange(ctx context.Context, n string) error
	AddReviewedBy(ctx context.Context, n string, approvers []string) error
	Submit(ctx context.Context, n string) (p4.SubmitResult, error)
}

// Reviews is the Review Board side of a workflow.
type Reviews interface {
	EnsureSession(ctx context.Context) error
	ResolveReviewID(ctx context.Context, change, explicit string) (string, error)
	ChangeNumber(ctx context.Context, rid string) (string, error)
	ShipItApprovals(ctx context.Context, rid string) (reviewboard.Approvals, error)
	AddComment(ctx context.Context, rid, body string) error
	Publish(ctx context.Context, rid string) error
	RenumberAfterSubmit(ctx context.Context, rid string, change int) error
}

// ReviewTool posts reviews and produces diffs.
type ReviewTool interface {
	Post(ctx context.Context, args []string) error
	Diff(ctx context.Context, args []string) ([]byte, error)
}

// Dispatcher runs one reconciled invocation.
type Dispatcher struct {
	vcs      VCS
	reviews  Reviews
	tool     ReviewTool
	logger   *terminal.Logger
	out      io.Writer
	color    bool
	server   string
	username string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithColorDiff highlights diff output.
func WithColorDiff(on bool) Option {
	return func(d *Dispatcher) { d.color = on }
}

// WithReviewServer sets the server URL and username rbt is given when the
// command line names neither, so rbt and post talk to the same server.
func WithReviewServer(server, username string) Option {
	return func(d *Dispatcher) {
		d.server = server
		d.username = username
	}
}

// New creates a dispatcher. Results meant for the user, such as the diff or
// the submitted change number, are written to out.
func New(vcs VCS, reviews Reviews, tool ReviewTool, logger *terminal.Logger, out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{vcs: vcs, reviews: reviews, tool: tool, logger: logger, out: out}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch performs inv.Action.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation) error {
	switch inv.Action {
	case domain.ActionCreate:
		return d.create(ctx, inv)
	case domain.ActionEdit:
		return d.edit(ctx, inv)
	case domain.ActionSubmit:
		return d.submit(ctx, inv)
	case domain.ActionDiff:
		return d.diff(ctx, inv)
	default:
		return fmt.Errorf("%w: %d", domain.ErrUnknownAction, inv.Action)
	}
}

// ShelveComment is the review comment telling reviewers how to fetch a shelf.
func ShelveComment(change string) string {
	return fmt.Sprintf("This change has been shelved in changeset %s. "+
		"To unshelve this change into your workspace:\n\n\tp4 unshelve -s %s", change, change)
}

// withExtraArgs returns args with extra inserted before the trailing change
// reference, which rbt expects last.
func withExtraArgs(args []string, extra ...string) []string {
	out := slices.Clone(args)
	if len(out) == 0 {
		return append(out, extra...)
	}
	return slices.Insert(out, len(out)-1, extra...)
}

// rbtArgs prefixes args with the resolved --server and --username unless
// they are already present.
func (d *Dispatcher) rbtArgs(args []string) []string {
	var front []string
	if d.server != "" && !hasFlag(args, "--server") {
		front = append(front, "--server", d.server)
	}
	if d.username != "" && !hasFlag(args, "--username") {
		front = append(front, "--username", d.username)
	}
	return append(front, args...)
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

func bugsArgs(jobs []string) []string {
	if len(jobs) == 0 {
		return nil
	}
	return []string{"--bugs-closed", strings.Join(jobs, ",")}
}

// changeFor returns the change reference of inv, asking the server for the
// review's change list number when only --rid was given.
func (d *Dispatcher) changeFor(ctx context.Context, inv domain.Invocation) (domain.ChangeRef, []string, error) {
	args := slices.Clone(inv.Passthrough)
	if !inv.ChangeRef.IsZero() {
		return inv.ChangeRef, args, nil
	}
	n, err := d.reviews.ChangeNumber(ctx, inv.Options.ReviewID)
	if err != nil {
		return domain.ChangeRef{}, nil, err
	}
	d.logger.Debugf("review %s is change %s", inv.Options.ReviewID, n)
	ref := domain.NumberRef(n)
	if inv.Action != domain.ActionSubmit {
		args = append(args, n)
	}
	return ref, args, nil
}

func (d *Dispatcher) create(ctx context.Context, inv domain.Invocation) error {
	opts := inv.Options
	change := inv.ChangeRef
	args := slices.Clone(inv.Passthrough)
	if opts.Publish && change.Kind == domain.ChangeRefDepotPath && opts.ReviewID == "" {
		return domain.ArgumentErrorf("publishing a review of a depot path requires --rid")
	}

	if err := d.vcs.Connect(ctx); err != nil {
		return err
	}
	if change.IsZero() {
		n, err := d.vcs.NewChange(ctx)
		if err != nil {
			return err
		}
		d.logger.Logf(terminal.StyleSuccess, "Created change %s", n)
		change = domain.NumberRef(n)
		args = append(args, n)
	}

	if opts.Shelve {
		if err := d.vcs.Shelve(ctx, change.Value); err != nil {
			return err
		}
	}

	var extra []string
	if change.IsNumber() {
		jobs, err := d.vcs.Jobs(ctx, change.Value)
		if err != nil {
			return err
		}
		extra = bugsArgs(jobs)
	}
	if opts.ReviewID != "" {
		extra = append(extra, "--review-request-id", opts.ReviewID)
	}

	if err := d.tool.Post(ctx, d.rbtArgs(withExtraArgs(args, extra...))); err != nil {
		return err
	}
	return d.afterPost(ctx, change, opts, opts.Shelve)
}

func (d *Dispatcher) edit(ctx context.Context, inv domain.Invocation) error {
	opts := inv.Options
	if inv.ChangeRef.Kind == domain.ChangeRefDepotPath && opts.ReviewID == "" {
		return domain.ArgumentErrorf("editing a review of a depot path requires --rid")
	}

	change, args, err := d.changeFor(ctx, inv)
	if err != nil {
		return err
	}
	rid, err := d.reviews.ResolveReviewID(ctx, change.Value, opts.ReviewID)
	if err != nil {
		return err
	}

	if err := d.vcs.Connect(ctx); err != nil {
		return err
	}
	shelved := opts.Shelve
	var extra []string
	if change.IsNumber() {
		if opts.Shelve {
			if err := d.vcs.Shelve(ctx, change.Value); err != nil {
				return err
			}
		} else if shelved, err = d.vcs.Shelved(ctx, change.Value); err != nil {
			return err
		}
		jobs, err := d.vcs.Jobs(ctx, change.Value)
		if err != nil {
			return err
		}
		extra = bugsArgs(jobs)
	}
	extra = append(extra, "--review-request-id", rid)

	if err := d.tool.Post(ctx, d.rbtArgs(withExtraArgs(args, extra...))); err != nil {
		return err
	}
	opts.ReviewID = rid
	return d.afterPost(ctx, change, opts, shelved)
}

// afterPost adds the shelf comment and publishes the draft when asked to.
func (d *Dispatcher) afterPost(ctx context.Context, change domain.ChangeRef, opts domain.InterceptedOptions, shelved bool) error {
	if !shelved && !opts.Publish {
		return nil
	}
	rid, err := d.reviews.ResolveReviewID(ctx, change.Value, opts.ReviewID)
	if err != nil {
		return err
	}
	if shelved {
		comment := ShelveComment(change.Value)
		d.logger.Debugf("%s", comment)
		if err := d.reviews.AddComment(ctx, rid, comment); err != nil {
			return err
		}
	}
	if opts.Publish {
		if err := d.reviews.Publish(ctx, rid); err != nil {
			return err
		}
		d.logger.Logf(terminal.StyleSuccess, "Published review %s", rid)
	}
	return nil
}

func (d *Dispatcher) submit(ctx context.Context, inv domain.Invocation) error {
	opts := inv.Options
	// Any login prompt has to happen before the spinner owns stderr.
	if err := d.reviews.EnsureSession(ctx); err != nil {
		return err
	}
	change, _, err := d.changeFor(ctx, inv)
	if err != nil {
		return err
	}
	rid, err := d.reviews.ResolveReviewID(ctx, change.Value, opts.ReviewID)
	if err != nil {
		return err
	}

	var approvals reviewboard.Approvals
	err = terminal.Spin(ctx, "Checking Ship Its", func() error {
		var err error
		approvals, err = d.reviews.ShipItApprovals(ctx, rid)
		return err
	})
	if err != nil {
		return err
	}
	if err := CheckShipIt(rid, approvals, opts.Force); err != nil {
		return err
	}

	if err := d.vcs.Connect(ctx); err != nil {
		return err
	}
	if err := d.vcs.VerifyOwner(ctx, change.Value); err != nil {
		return err
	}

	shelved, err := d.vcs.Shelved(ctx, change.Value)
	if err != nil {
		return err
	}
	if shelved {
		if err := d.vcs.DeleteShelf(ctx, change.Value); err != nil {
			return err
		}
		d.logger.Logf(terminal.StyleDim, "Deleted shelved files of change %s", change.Value)
	}

	if opts.EditChangelist {
		if err := d.vcs.EditChange(ctx, change.Value); err != nil {
			return err
		}
	}
	if len(approvals.Names) > 0 {
		if err := d.vcs.AddReviewedBy(ctx, change.Value, approvals.Names); err != nil {
			return err
		}
	}

	res, err := d.vcs.Submit(ctx, change.Value)
	if err != nil {
		return err
	}
	if res.Renamed {
		fmt.Fprintf(d.out, "Change %s renamed change %d and submitted.\n", change.Value, res.Change)
	} else {
		fmt.Fprintf(d.out, "Change %d submitted.\n", res.Change)
	}

	if err := d.reviews.RenumberAfterSubmit(ctx, rid, res.Change); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Review %s closed.\n", rid)
	return nil
}

func (d *Dispatcher) diff(ctx context.Context, inv domain.Invocation) error {
	_, args, err := d.changeFor(ctx, inv)
	if err != nil {
		return err
	}
	out, err := d.tool.Diff(ctx, d.rbtArgs(args))
	if err != nil {
		return err
	}
	return diff.Write(d.out, string(out), diff.Options{Stat: inv.Options.Stat, Color: d.color})
}
