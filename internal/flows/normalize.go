package flows

import "strings"

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims, collapses internal whitespace runs to one space
// and lower-cases.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.Join(strings.Fields(username), " "))
}
