// Package testutil provides database fixtures for tests
package testutil

import "net/url"

// withDatabase swaps the database path of a postgres URL
func withDatabase(rawURL, name string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}
