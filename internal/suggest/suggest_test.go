package suggest

import "testing"

func TestClosest(t *testing.T) {
	keys := []string{"server", "username", "review_bot", "p4_binary", "rbt_binary", "cookie_file"}
	actions := []string{"create", "edit", "submit", "diff"}

	tests := []struct {
		input      string
		candidates []string
		expected   string
	}{
		{"servr", keys, "server"},
		{"rbt_bin", keys, "rbt_binary"},
		{"reviewbot", keys, "review_bot"},
		{"Username", keys, "username"},
		{"totally_unrelated_name", keys, ""},
		{"sumbit", actions, ""},
		{"subm", actions, "submit"},
		{"ed", actions, "edit"},
		{"", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Closest(tt.input, tt.candidates); got != tt.expected {
				t.Errorf("Closest(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
