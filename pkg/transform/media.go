package transform

import (
	"encoding/xml"
	"strings"

	"github.com/odk-sre/webform-manager/pkg/model"
)

const formLogoFilename = "form_logo.png"

// LocalMediaURL converts a remote media URL into the local proxy path served
// by the media route. The scheme separator is collapsed and any colon left in
// the remainder is percent-encoded so the result is safe as a path segment.
func LocalMediaURL(downloadURL string) string {
	scheme, rest, found := strings.Cut(downloadURL, "://")
	if !found {
		return downloadURL
	}
	rest = strings.ReplaceAll(rest, ":", "%3A")
	return "/media/get/" + scheme + "/" + rest
}

// rewriteMediaSources replaces every src attribute matching a manifest
// filename with its proxied URL and injects the form logo when the manifest
// provides one.
func rewriteMediaSources(form *node, manifest []model.MediaFile) {
	form.walk(func(n *node) {
		src, ok := n.attrValue("src")
		if !ok {
			return
		}
		for _, file := range manifest {
			if file.Filename == src {
				n.setAttr("src", LocalMediaURL(file.DownloadURL))
				break
			}
		}
	})

	for _, file := range manifest {
		if file.Filename != formLogoFilename {
			continue
		}
		if placeholder := findLogoPlaceholder(form); placeholder != nil {
			img := &node{name: xml.Name{Local: "img"}}
			img.setAttr("src", LocalMediaURL(file.DownloadURL))
			img.setAttr("alt", "form logo")
			placeholder.kids = append(placeholder.kids, img)
		}
		break
	}
}

func findLogoPlaceholder(form *node) *node {
	var placeholder *node
	form.walk(func(n *node) {
		if placeholder != nil {
			return
		}
		if class, _ := n.attrValue("class"); class == "form-logo" {
			placeholder = n
		}
	})
	return placeholder
}
