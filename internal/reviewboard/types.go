package reviewboard

import "strings"

// ReviewRequest is the subset of a Review Board review request post uses.
type ReviewRequest struct {
	ID          int    `json:"id"`
	ChangeNum   int    `json:"changenum"`
	Status      string `json:"status"`
	Public      bool   `json:"public"`
	Summary     string `json:"summary"`
	AbsoluteURL string `json:"absolute_url"`
}

// User is a Review Board account.
type User struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last", or the username when both are empty.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

type link struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// Review is one review on a review request. User is filled when the
// request asked for expand=user; otherwise only the user link title is known.
type Review struct {
	ID      int    `json:"id"`
	ShipIt  bool   `json:"ship_it"`
	Public  bool   `json:"public"`
	BodyTop string `json:"body_top"`
	User    *User  `json:"user"`
	Links   struct {
		User link `json:"user"`
	} `json:"links"`
}

// Author returns the reviewer, falling back to the user link title.
func (r Review) Author() User {
	if r.User != nil {
		return *r.User
	}
	return User{Username: r.Links.User.Title}
}

type reviewRequestList struct {
	ReviewRequests []ReviewRequest `json:"review_requests"`
	TotalResults   int             `json:"total_results"`
}

type reviewRequestItem struct {
	ReviewRequest ReviewRequest `json:"review_request"`
}

type reviewList struct {
	Reviews []Review `json:"reviews"`
}

type reviewItem struct {
	Review Review `json:"review"`
}

type sessionItem struct {
	Session struct {
		Authenticated bool `json:"authenticated"`
	} `json:"session"`
}

// errorBody is the payload Review Board sends with a failed call.
type errorBody struct {
	Stat string `json:"stat"`
	Err  struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"err"`
}
