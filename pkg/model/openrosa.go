package model

// Credentials authenticate against a remote OpenRosa server. Either a bearer
// token or a user/pass pair is used, never both.
type Credentials struct {
	User        string
	Pass        string
	BearerToken string
}

// Empty returns true if no usable credential is present.
func (c Credentials) Empty() bool {
	return c.User == "" && c.BearerToken == ""
}

// FormInfo is the formList entry matched for a requested form. Each XML tag
// occurs at most once per entry, so values are plain strings.
type FormInfo struct {
	FormID      string
	Name        string
	Version     string
	Hash        string
	DownloadURL string
	ManifestURL string
}

// MediaFile is one entry of a form's media manifest.
type MediaFile struct {
	Filename    string
	Hash        string
	DownloadURL string
}
