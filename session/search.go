package session

import "strings"

// SearchURL returns the search form address for a portal base URL.
func SearchURL(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + DefaultSearchPath
}
