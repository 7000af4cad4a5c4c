package customers

import "testing"

func TestFullName(t *testing.T) {
	c := Customer{FirstName: "Ana", LastName: "Lee"}
	if got := c.FullName(); got != "Ana Lee" {
		t.Errorf("Expected full name %q, got %q", "Ana Lee", got)
	}
}
