package customers

import "errors"

// ErrNotFound is returned when a lookup matches no customer. Search returns it
// for an empty result set as well, which distinguishes "no matches" from an
// empty table at the API boundary.
var ErrNotFound = errors.New("customer not found")

// Customer is a restaurant customer. ID is assigned by the store on the first
// Save and never changes afterwards.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     string
	Notes     string
}

// FullName joins first and last name for display.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
