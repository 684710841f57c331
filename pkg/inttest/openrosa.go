package inttest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// OpenRosaServer is a fake OpenRosa server backed by [httptest.Server]. Form
// XML and manifests are registered per form ID; download and manifest URLs in
// the form list point back at the fake.
type OpenRosaServer struct {
	*httptest.Server

	forms map[string]*FakeForm
}

type FakeForm struct {
	FormID      string
	Name        string
	Hash        string
	XForm       string
	Manifest    string
	hasManifest bool
}

func NewOpenRosaServer(t *testing.T) *OpenRosaServer {
	server := &OpenRosaServer{forms: map[string]*FakeForm{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/formList", server.formList)
	mux.HandleFunc("/forms/", server.download)
	mux.HandleFunc("/manifests/", server.manifest)
	mux.HandleFunc("/submission", server.submission)

	server.Server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// AddForm registers a form. An empty manifest means the form list entry
// carries no manifest URL at all.
func (s *OpenRosaServer) AddForm(form FakeForm) {
	form.hasManifest = form.Manifest != ""
	s.forms[form.FormID] = &form
}

func (s *OpenRosaServer) formList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><xforms xmlns="http://openrosa.org/xforms/xformsList">`)
	for id, form := range s.forms {
		fmt.Fprintf(w, "<xform><formID>%s</formID><name>%s</name><hash>%s</hash><downloadUrl>%s/forms/%s</downloadUrl>", id, form.Name, form.Hash, s.URL, id)
		if form.hasManifest {
			fmt.Fprintf(w, "<manifestUrl>%s/manifests/%s</manifestUrl>", s.URL, id)
		}
		fmt.Fprint(w, "</xform>")
	}
	fmt.Fprint(w, "</xforms>")
}

func (s *OpenRosaServer) download(w http.ResponseWriter, r *http.Request) {
	form, ok := s.forms[r.URL.Path[len("/forms/"):]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	fmt.Fprint(w, form.XForm)
}

func (s *OpenRosaServer) manifest(w http.ResponseWriter, r *http.Request) {
	form, ok := s.forms[r.URL.Path[len("/manifests/"):]]
	if !ok || !form.hasManifest {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	fmt.Fprint(w, form.Manifest)
}

func (s *OpenRosaServer) submission(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-OpenRosa-Accept-Content-Length", "10485760")
	w.WriteHeader(http.StatusNoContent)
}
