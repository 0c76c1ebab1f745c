package service

import "github.com/Skryldev/restfull-books/models"

// Field names accepted by ApplyUserFields. They are the JSON names of
// models.User; matching is exact and case-sensitive.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
)

// FieldUpdate is one key/value pair of a partial update, in request order.
type FieldUpdate struct {
	Name  string
	Value any
}

// ApplyUserFields applies updates to u in order. Only FieldFirstName and
// FieldLastName are writable and their values must be strings.
//
// On the first bad update it returns a KindInvalidField error; updates before
// it have already been applied to u.
func ApplyUserFields(u *models.User, updates []FieldUpdate) error {
	for _, upd := range updates {
		var dst *string
		switch upd.Name {
		case FieldFirstName:
			dst = &u.FirstName
		case FieldLastName:
			dst = &u.LastName
		default:
			return InvalidField(upd.Name, "Invalid field: "+upd.Name)
		}

		s, ok := upd.Value.(string)
		if !ok {
			return InvalidField(upd.Name, "Invalid value for field: "+upd.Name)
		}
		*dst = s
	}
	return nil
}
