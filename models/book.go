package models

// Book represents a row in the "books" table. Title and Author are stored
// verbatim.
type Book struct {
	ID     int64  `json:"id" db:"id"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
}
