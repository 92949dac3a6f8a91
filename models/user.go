package models

import "github.com/shopspring/decimal"

// User represents a registered account holder. Usernames are unique
// case-insensitively; the stored value keeps its original casing.
// Passwords are stored and compared as opaque strings, mirroring the
// service this replaces.
type User struct {
	Username        string          `json:"username"`
	Password        string          `json:"password"`
	ProfilePicture  string          `json:"profilePicture"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
}
