package model

// Contact is the data structure for a person in the contact book.
// All fields with the exception of the Id field are optional free text.
//
// Birthday holds an ISO calendar date ("2006-01-02"). DateAdded and
// LastModified hold ISO-8601 timestamps. The JSON encoding of a []Contact
// is both the value stored in the contacts slot and the export file format,
// so imported records round-trip through this struct unchanged.
type Contact struct {
	Id           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Company      string `json:"company"`
	JobTitle     string `json:"jobTitle"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
	Birthday     string `json:"birthday,omitempty"`
	Group        string `json:"group,omitempty"`
	Favorite     bool   `json:"favorite"`
	DateAdded    string `json:"dateAdded"`
	LastModified string `json:"lastModified"`
}

// FullName returns first and last name joined with a space. It is the
// string that search and the name sort operate on.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}
