package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/sallan/RBScript/internal/p4"
	"github.com/sallan/RBScript/internal/reviewboard"
)

// recorder collects the calls made on the fakes in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) has(call string) bool {
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (r *recorder) String() string {
	return strings.Join(r.calls, "\n")
}

type fakeVCS struct {
	rec       *recorder
	newChange string
	jobs      []string
	shelved   bool
	ownerErr  error
	submitted p4.SubmitResult
	submitErr error
}

func (f *fakeVCS) Connect(context.Context) error {
	f.rec.add("p4 connect")
	return nil
}

func (f *fakeVCS) NewChange(context.Context) (string, error) {
	f.rec.add("p4 new change")
	return f.newChange, nil
}

func (f *fakeVCS) Jobs(_ context.Context, n string) ([]string, error) {
	f.rec.add("p4 jobs %s", n)
	return f.jobs, nil
}

func (f *fakeVCS) Shelve(_ context.Context, n string) error {
	f.rec.add("p4 shelve %s", n)
	return nil
}

func (f *fakeVCS) Shelved(_ context.Context, n string) (bool, error) {
	f.rec.add("p4 shelved %s", n)
	return f.shelved, nil
}

func (f *fakeVCS) DeleteShelf(_ context.Context, n string) error {
	f.rec.add("p4 delete shelf %s", n)
	return nil
}

func (f *fakeVCS) VerifyOwner(_ context.Context, n string) error {
	f.rec.add("p4 verify owner %s", n)
	return f.ownerErr
}

func (f *fakeVCS) EditChange(_ context.Context, n string) error {
	f.rec.add("p4 edit change %s", n)
	return nil
}

func (f *fakeVCS) AddReviewedBy(_ context.Context, n string, approvers []string) error {
	f.rec.add("p4 reviewed by %s: %s", n, strings.Join(approvers, ", "))
	return nil
}

func (f *fakeVCS) Submit(_ context.Context, n string) (p4.SubmitResult, error) {
	f.rec.add("p4 submit %s", n)
	return f.submitted, f.submitErr
}

type fakeReviews struct {
	rec       *recorder
	rid       string
	resolve   error
	changenum string
	approvals reviewboard.Approvals
	comments  []string
}

func (f *fakeReviews) EnsureSession(context.Context) error {
	f.rec.add("rb session")
	return nil
}

func (f *fakeReviews) ResolveReviewID(_ context.Context, change, explicit string) (string, error) {
	f.rec.add("rb resolve %s %s", change, explicit)
	if explicit != "" {
		return explicit, nil
	}
	return f.rid, f.resolve
}

func (f *fakeReviews) ChangeNumber(_ context.Context, rid string) (string, error) {
	f.rec.add("rb changenum %s", rid)
	return f.changenum, nil
}

func (f *fakeReviews) ShipItApprovals(_ context.Context, rid string) (reviewboard.Approvals, error) {
	f.rec.add("rb ship its %s", rid)
	return f.approvals, nil
}

func (f *fakeReviews) AddComment(_ context.Context, rid, body string) error {
	f.rec.add("rb comment %s", rid)
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeReviews) Publish(_ context.Context, rid string) error {
	f.rec.add("rb publish %s", rid)
	return nil
}

func (f *fakeReviews) RenumberAfterSubmit(_ context.Context, rid string, change int) error {
	f.rec.add("rb renumber %s %d", rid, change)
	return nil
}

// approvedBy returns the approvals of users with the given usernames.
func approvedBy(usernames ...string) reviewboard.Approvals {
	var users []reviewboard.User
	for _, u := range usernames {
		users = append(users, reviewboard.User{Username: u})
	}
	return reviewboard.NewApprovals(users, "Review Bot")
}

type fakeTool struct {
	rec      *recorder
	postArgs []string
	diffArgs []string
	diffOut  string
}

func (f *fakeTool) Post(_ context.Context, args []string) error {
	f.rec.add("rbt post")
	f.postArgs = args
	return nil
}

func (f *fakeTool) Diff(_ context.Context, args []string) ([]byte, error) {
	f.rec.add("rbt diff")
	f.diffArgs = args
	return []byte(f.diffOut), nil
}
