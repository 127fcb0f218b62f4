package model

// User is a directory entry used to resolve display names.
type User struct {
	ID       string
	FullName string
	Enabled  bool
}
