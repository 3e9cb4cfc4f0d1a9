package model

// Person is the record served under /people.
// FirstName is the unique key; the remaining fields are stored and returned as-is,
// zero values included.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
}
