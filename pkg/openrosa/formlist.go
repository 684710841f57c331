package openrosa

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

type xformList struct {
	XMLName xml.Name     `xml:"xforms"`
	XForms  []xformEntry `xml:"xform"`
}

type xformEntry struct {
	FormID      string `xml:"formID"`
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Hash        string `xml:"hash"`
	DownloadURL string `xml:"downloadUrl"`
	ManifestURL string `xml:"manifestUrl"`
}

// LocateForm fetches the server's form list and returns the entry matching
// formID. Matching is textual and first-match-wins; a well-behaved server
// never lists the same formID twice. An optional custom query parameter is
// appended to the form list URL when customParamName is non-empty.
func (c *Client) LocateForm(ctx context.Context, server, formID string, creds model.Credentials, cookie, customParamName, customParamValue string) (model.FormInfo, error) {
	if server == "" {
		return model.FormInfo{}, errdef.NewBadRequest("no server provided")
	}

	listURL := FormListURL(server)
	if customParamName != "" {
		listURL += "?" + url.Values{customParamName: []string{customParamValue}}.Encode()
	}

	authHeader, err := c.AuthHeader(ctx, http.MethodGet, listURL, creds)
	if err != nil {
		return model.FormInfo{}, err
	}

	resp, err := c.do(ctx, request{url: listURL, authHeader: authHeader, cookie: cookie})
	if err != nil {
		return model.FormInfo{}, err
	}

	var list xformList
	if err := xml.Unmarshal(resp.body, &list); err != nil {
		return model.FormInfo{}, errdef.NewMalformed("invalid form list from %q: %v", listURL, err)
	}

	for _, entry := range list.XForms {
		if entry.FormID == formID {
			return model.FormInfo{
				FormID:      entry.FormID,
				Name:        entry.Name,
				Version:     entry.Version,
				Hash:        entry.Hash,
				DownloadURL: entry.DownloadURL,
				ManifestURL: entry.ManifestURL,
			}, nil
		}
	}

	err = errdef.NewNotFound("form %q not found in form list of %q", formID, server)
	return model.FormInfo{}, errdef.WithTranslation(err, "error.notfoundinformlist", map[string]string{
		"formId": "'" + formID + "'",
	})
}

// Authenticate performs a form list request purely to verify that the given
// credentials are accepted by the server.
func (c *Client) Authenticate(ctx context.Context, server string, creds model.Credentials, cookie string) error {
	listURL := FormListURL(server)
	authHeader, err := c.AuthHeader(ctx, http.MethodGet, listURL, creds)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{url: listURL, authHeader: authHeader, cookie: cookie})
	return err
}
