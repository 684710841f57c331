package model

// Instance is a staged edit session for a previously submitted record. It
// lives in the cache only long enough to bridge the redirect into the
// webform, never as durable storage.
type Instance struct {
	InstanceID          string            `json:"instanceId"`
	OpenRosaServer      string            `json:"openRosaServer"`
	OpenRosaID          string            `json:"openRosaId"`
	Instance            string            `json:"instance"`
	ReturnURL           string            `json:"returnUrl,omitempty"`
	InstanceAttachments map[string]string `json:"instanceAttachments,omitempty"`
}
