package p4

import (
	"context"
)

// Shelve creates or replaces the shelf of change list n.
func (c *Client) Shelve(ctx context.Context, n string) error {
	_, err := c.run(ctx, nil, "shelve", "-f", "-c", n)
	return err
}

// DeleteShelf removes the shelved files of change list n.
func (c *Client) DeleteShelf(ctx context.Context, n string) error {
	_, err := c.run(ctx, nil, "shelve", "-d", "-c", n)
	return err
}

// Shelved reports whether change list n is one of the user's shelved changes.
func (c *Client) Shelved(ctx context.Context, n string) (bool, error) {
	if err := c.Connect(ctx); err != nil {
		return false, err
	}
	records, err := c.ztag(ctx, "changes", "-u", c.id.User, "-s", "shelved")
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Get("change") == n {
			return true, nil
		}
	}
	return false, nil
}
