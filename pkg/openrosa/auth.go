package openrosa

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"net/url"
	"strings"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

// AuthHeader determines the Authorization header value to use against url for
// a request with the given method. A bearer token is returned immediately
// without a probe. Otherwise the server is probed without credentials: if it
// does not challenge, no auth is needed and the empty string is returned. A
// Basic or Digest value is built from the advertised challenge when user/pass
// credentials are available.
func (c *Client) AuthHeader(ctx context.Context, method, rawurl string, creds model.Credentials) (string, error) {
	if creds.BearerToken != "" {
		return "Bearer " + creds.BearerToken, nil
	}

	probeReq, err := c.newRequest(ctx, request{method: c.probeMethod, url: rawurl})
	if err != nil {
		return "", err
	}
	probeResp, err := c.client.Do(probeReq)
	if err != nil {
		return "", errdef.NewNetwork(err)
	}
	defer probeResp.Body.Close()

	if probeResp.StatusCode != http.StatusUnauthorized {
		return "", nil
	}
	if creds.Empty() {
		// let the caller surface the 401 on the real request
		return "", nil
	}

	return buildAuthorization(method, rawurl, probeResp.Header.Get("WWW-Authenticate"), creds)
}

func buildAuthorization(method, rawurl, challengeHeader string, creds model.Credentials) (string, error) {
	challenge, err := parseChallenge(challengeHeader)
	if err != nil {
		return "", err
	}

	if challenge.scheme == "basic" {
		token := base64.StdEncoding.EncodeToString([]byte(creds.User + ":" + creds.Pass))
		return "Basic " + token, nil
	}
	return digestAuthorization(method, rawurl, challenge, creds)
}

type challenge struct {
	scheme    string
	realm     string
	nonce     string
	opaque    string
	qop       string
	algorithm string
}

func parseChallenge(header string) (challenge, error) {
	scheme, params, _ := strings.Cut(strings.TrimSpace(header), " ")
	ch := challenge{scheme: strings.ToLower(scheme)}
	if ch.scheme != "basic" && ch.scheme != "digest" {
		return ch, errdef.NewUnauthorized("unsupported authentication scheme %q", scheme)
	}

	for _, part := range splitChallengeParams(params) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "realm":
			ch.realm = value
		case "nonce":
			ch.nonce = value
		case "opaque":
			ch.opaque = value
		case "qop":
			ch.qop = value
		case "algorithm":
			ch.algorithm = value
		}
	}
	return ch, nil
}

// splitChallengeParams splits on commas outside of quoted strings.
func splitChallengeParams(params string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	for _, r := range params {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// digestAuthorization builds an RFC 7616 Digest response. The construction is
// done here instead of through any HTTP library internals.
func digestAuthorization(method, rawurl string, ch challenge, creds model.Credentials) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", errdef.NewBadRequest("invalid url %q: %v", rawurl, err)
	}
	uri := u.RequestURI()
	if method == "" {
		method = http.MethodGet
	}

	algorithm := ch.algorithm
	if algorithm == "" {
		algorithm = "MD5"
	}
	var newHash func() hash.Hash
	switch strings.ToUpper(strings.TrimSuffix(algorithm, "-sess")) {
	case "MD5":
		newHash = md5.New
	case "SHA-256":
		newHash = sha256.New
	default:
		return "", errdef.NewUnauthorized("unsupported digest algorithm %q", algorithm)
	}
	h := func(data string) string {
		d := newHash()
		d.Write([]byte(data))
		return hex.EncodeToString(d.Sum(nil))
	}

	cnonce, err := newCnonce()
	if err != nil {
		return "", err
	}
	const nc = "00000001"

	ha1 := h(creds.User + ":" + ch.realm + ":" + creds.Pass)
	if strings.HasSuffix(strings.ToUpper(algorithm), "-SESS") {
		ha1 = h(ha1 + ":" + ch.nonce + ":" + cnonce)
	}
	ha2 := h(method + ":" + uri)

	qop := ""
	for _, q := range strings.Split(ch.qop, ",") {
		if strings.TrimSpace(q) == "auth" {
			qop = "auth"
			break
		}
	}

	var response string
	if qop == "" {
		response = h(ha1 + ":" + ch.nonce + ":" + ha2)
	} else {
		response = h(strings.Join([]string{ha1, ch.nonce, nc, cnonce, qop, ha2}, ":"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username=%q, realm=%q, nonce=%q, uri=%q, algorithm=%s, response=%q`,
		creds.User, ch.realm, ch.nonce, uri, algorithm, response)
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce=%q`, qop, nc, cnonce)
	}
	if ch.opaque != "" {
		fmt.Fprintf(&b, `, opaque=%q`, ch.opaque)
	}
	return b.String(), nil
}

func newCnonce() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate cnonce: %v", err)
	}
	return hex.EncodeToString(buf), nil
}
