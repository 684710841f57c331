package model

import (
	"regexp"
	"strings"
	"time"
)

// Survey is the registry record for a single remote form. Surveys are never
// hard-deleted, only deactivated.
type Survey struct {
	EnketoID       string    `json:"enketoId"`
	OpenRosaServer string    `json:"openRosaServer"`
	OpenRosaID     string    `json:"openRosaId"`
	Theme          string    `json:"theme,omitempty"`
	Active         bool      `json:"active"`
	Submissions    int64     `json:"submissions"`
	LaunchDate     time.Time `json:"launchDate"`
	LastAccessed   time.Time `json:"lastAccessed,omitempty"`
}

var serverURLPattern = regexp.MustCompile(`^https?://(www\.)?(.+)$`)

// CleanServerURL normalizes a server URL for use in a database key. It strips
// the scheme and an optional www. prefix, removes a trailing slash and
// lowercases the rest. An empty string is returned for URLs without an
// http(s) scheme.
func CleanServerURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	matches := serverURLPattern.FindStringSubmatch(url)
	if matches == nil {
		return ""
	}
	return strings.ToLower(matches[2])
}

// OpenRosaKey returns the natural key identifying a form on a server, or the
// empty string if server or formID is missing or invalid.
func OpenRosaKey(server, formID string) string {
	formID = strings.ToLower(strings.TrimSpace(formID))
	if server == "" || formID == "" {
		return ""
	}
	cleaned := CleanServerURL(server)
	if cleaned == "" {
		return ""
	}
	return cleaned + "," + formID
}
