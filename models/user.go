package models

// User represents a row in the "users" table.
// Both names are required on create and full replace; the store generates ID.
type User struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
}
