package openrosa

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

// DefaultMaxSubmissionSize is used when the server does not advertise an
// accepted content length.
const DefaultMaxSubmissionSize = 5 * 1024 * 1024

// FetchXForm downloads the XForm XML body for a located form.
func (c *Client) FetchXForm(ctx context.Context, info model.FormInfo, creds model.Credentials, cookie string) (string, error) {
	if info.DownloadURL == "" {
		return "", errdef.NewBadRequest("form info has no download url")
	}

	authHeader, err := c.AuthHeader(ctx, http.MethodGet, info.DownloadURL, creds)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, request{url: info.DownloadURL, authHeader: authHeader, cookie: cookie})
	if err != nil {
		return "", err
	}
	return string(resp.body), nil
}

type manifest struct {
	XMLName    xml.Name        `xml:"manifest"`
	MediaFiles []manifestEntry `xml:"mediaFile"`
}

type manifestEntry struct {
	Filename    string `xml:"filename"`
	Hash        string `xml:"hash"`
	DownloadURL string `xml:"downloadUrl"`
}

// FetchManifest retrieves the media manifest for a located form. A form
// without a manifest URL is not an error, the list is simply empty. A
// manifest URL that fails to resolve is an error since the server advertised
// it.
func (c *Client) FetchManifest(ctx context.Context, info model.FormInfo, creds model.Credentials, cookie string) ([]model.MediaFile, error) {
	if info.ManifestURL == "" {
		return []model.MediaFile{}, nil
	}

	authHeader, err := c.AuthHeader(ctx, http.MethodGet, info.ManifestURL, creds)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{url: info.ManifestURL, authHeader: authHeader, cookie: cookie})
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := xml.Unmarshal(resp.body, &m); err != nil {
		return nil, errdef.NewMalformed("invalid manifest from %q: %v", info.ManifestURL, err)
	}

	files := make([]model.MediaFile, 0, len(m.MediaFiles))
	for _, entry := range m.MediaFiles {
		files = append(files, model.MediaFile{
			Filename:    entry.Filename,
			Hash:        entry.Hash,
			DownloadURL: entry.DownloadURL,
		})
	}
	return files, nil
}

// MaxSubmissionSize probes the server's submission endpoint for the maximum
// accepted content length.
func (c *Client) MaxSubmissionSize(ctx context.Context, server string, creds model.Credentials, cookie string) (int64, error) {
	submissionURL := SubmissionURL(server)

	authHeader, err := c.AuthHeader(ctx, http.MethodHead, submissionURL, creds)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, request{method: http.MethodHead, url: submissionURL, authHeader: authHeader, cookie: cookie})
	if err != nil {
		return 0, err
	}

	value := resp.header.Get("X-OpenRosa-Accept-Content-Length")
	if value == "" {
		return DefaultMaxSubmissionSize, nil
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		c.logger.WarnContext(ctx, "server sent unusable accept-content-length", "server", server, "value", value)
		return DefaultMaxSubmissionSize, nil
	}
	return size, nil
}
