package workflow

import (
	"errors"
	"fmt"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/reviewboard"
)

var (
	// ErrNoShipIt blocks submitting a review nobody approved.
	ErrNoShipIt = errors.New("no 'Ship It' reviews")
	// ErrReviewBotOnly blocks submitting a review only the automated reviewer approved.
	ErrReviewBotOnly = errors.New("only a Review Bot 'Ship It'")
)

// CheckShipIt fails unless the review has at least one approval that is not
// solely from the automated reviewer. force skips the check.
func CheckShipIt(rid string, approvals reviewboard.Approvals, force bool) error {
	if force {
		return nil
	}
	switch {
	case len(approvals.Names) == 0:
		return domain.ReviewServerError("check review "+rid, "Use --force to submit anyway.",
			fmt.Errorf("review %s has %w", rid, ErrNoShipIt))
	case approvals.ReviewBotOnly:
		return domain.ReviewServerError("check review "+rid, "Use --force to submit anyway.",
			fmt.Errorf("review %s has %w", rid, ErrReviewBotOnly))
	}
	return nil
}
