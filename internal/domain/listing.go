package domain

import "strings"

// EmailNotFound marks a listing whose detail page yielded no usable address.
const EmailNotFound = "Not found"

// Listing is a conference scraped from the submissions page.
type Listing struct {
	Name  string
	URL   string
	Email string
}

// Key returns the identity used when merging listings: the url, or the
// name key when no url is known.
func (l Listing) Key() string {
	if u := strings.TrimSpace(l.URL); u != "" {
		return u
	}
	return l.NameKey()
}

// NameKey is the case-insensitive name used when urls do not match.
func (l Listing) NameKey() string {
	return strings.ToLower(strings.TrimSpace(l.Name))
}

// HasEmail reports whether the listing carries a real address.
func (l Listing) HasEmail() bool {
	e := strings.TrimSpace(l.Email)
	return e != "" && e != EmailNotFound
}
