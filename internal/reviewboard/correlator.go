package reviewboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sallan/RBScript/internal/domain"
)

var (
	// ErrNoReview indicates no review request matches a change list.
	ErrNoReview = errors.New("no review found")
	// ErrAmbiguousReview indicates several review requests match a change list.
	ErrAmbiguousReview = errors.New("ambiguous review found")
)

// Approvals is the set of reviewers who gave a review request a Ship It.
type Approvals struct {
	// Names holds one display name per approving user, in review order.
	Names []string
	// ReviewBotOnly is true when the automated reviewer is the only approver.
	ReviewBotOnly bool
}

// NewApprovals builds Approvals from the approving users in review order,
// marking the set as bot-only when reviewBot is its sole member.
func NewApprovals(users []User, reviewBot string) Approvals {
	var names []string
	for _, u := range users {
		names = append(names, u.DisplayName())
	}
	return Approvals{
		Names:         names,
		ReviewBotOnly: len(users) == 1 && isReviewBot(users[0], reviewBot),
	}
}

// isReviewBot matches the automated reviewer by username or display name.
func isReviewBot(u User, reviewBot string) bool {
	return u.Username == reviewBot || u.DisplayName() == reviewBot
}

// Correlator maps change lists to review requests. Nothing is cached: every
// call asks the server, which may have been changed by someone else.
type Correlator struct {
	client    *Client
	reviewBot string
}

// NewCorrelator creates a correlator. reviewBot is the name of the automated
// reviewer whose Ship It alone does not count.
func NewCorrelator(client *Client, reviewBot string) *Correlator {
	return &Correlator{client: client, reviewBot: reviewBot}
}

// ResolveReviewID returns explicit if it is set. Otherwise it returns the id
// of the single review request, in any status, for change list change.
func (c *Correlator) ResolveReviewID(ctx context.Context, change, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	rrs, err := c.client.ReviewRequests(ctx, change, "all")
	if err != nil {
		return "", err
	}
	switch len(rrs) {
	case 0:
		return "", domain.ReviewServerError("find review for change "+change,
			"Either create a new review or use the --rid option.",
			fmt.Errorf("%w associated with change list %s", ErrNoReview, change))
	case 1:
		return strconv.Itoa(rrs[0].ID), nil
	default:
		return "", domain.ReviewServerError("find review for change "+change,
			"Use the --rid option to pick one.",
			fmt.Errorf("%w: %d reviews associated with change list %s", ErrAmbiguousReview, len(rrs), change))
	}
}

// EnsureSession logs in to the server up front when the session is anonymous.
func (c *Correlator) EnsureSession(ctx context.Context) error {
	return c.client.EnsureSession(ctx)
}

// ChangeNumber returns the change list number stored on review request rid.
func (c *Correlator) ChangeNumber(ctx context.Context, rid string) (string, error) {
	rr, err := c.client.ReviewRequest(ctx, rid)
	if err != nil {
		return "", err
	}
	if rr.ChangeNum == 0 {
		return "", domain.ReviewServerError("get review "+rid, "",
			fmt.Errorf("review %s has no change list number", rid))
	}
	return strconv.Itoa(rr.ChangeNum), nil
}

// ShipItApprovals returns the unique users who gave review request rid a Ship It.
func (c *Correlator) ShipItApprovals(ctx context.Context, rid string) (Approvals, error) {
	reviews, err := c.client.Reviews(ctx, rid)
	if err != nil {
		return Approvals{}, err
	}

	seen := map[string]bool{}
	var users []User
	for _, r := range reviews {
		if !r.ShipIt {
			continue
		}
		u := r.Author()
		if seen[u.Username] {
			continue
		}
		seen[u.Username] = true
		users = append(users, u)
	}
	return NewApprovals(users, c.reviewBot), nil
}

// AddComment posts a public review whose top text is body.
func (c *Correlator) AddComment(ctx context.Context, rid, body string) error {
	_, err := c.client.CreateReview(ctx, rid, url.Values{
		"body_top": {body},
		"public":   {"true"},
	})
	return err
}

// Publish makes the draft of review request rid public.
func (c *Correlator) Publish(ctx context.Context, rid string) error {
	return c.client.UpdateDraft(ctx, rid, url.Values{"public": {"true"}})
}

// RenumberAfterSubmit records the submitted change number on review request
// rid and closes it as submitted.
func (c *Correlator) RenumberAfterSubmit(ctx context.Context, rid string, change int) error {
	n := strconv.Itoa(change)
	if _, err := c.client.UpdateReviewRequest(ctx, rid, url.Values{"changenum": {n}}); err != nil {
		return err
	}
	_, err := c.client.UpdateReviewRequest(ctx, rid, url.Values{
		"status":            {"submitted"},
		"close_description": {"Submitted as change " + n + "."},
	})
	return err
}
