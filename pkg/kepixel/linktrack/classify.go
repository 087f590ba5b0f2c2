// Package linktrack classifies link activations as outbound links or file
// downloads and routes them to the matching tracking call.
package linktrack

import (
	"net/url"
	"strings"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
)

// Kind is the classification of a link activation.
type Kind int

const (
	// KindNone means the activation is not tracked.
	KindNone Kind = iota
	// KindOutbound is a link to another host.
	KindOutbound
	// KindDownload is a link to a file.
	KindDownload
)

// String returns the kind name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindOutbound:
		return "outbound"
	case KindDownload:
		return "download"
	default:
		return "none"
	}
}

// DownloadExtensions are the file extensions treated as downloads.
var DownloadExtensions = []string{
	// Documents
	"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp",
	// Archives
	"zip", "rar", "tar", "gz", "7z",
	// Media
	"mp3", "mp4", "avi", "mov", "wmv", "flv", "wav",
	// Images
	"jpg", "jpeg", "png", "gif", "svg", "webp",
	// Other
	"txt", "csv", "json", "xml",
}

// downloadAttr marks an anchor as a download regardless of its href.
const downloadAttr = "download"

// IsDownload reports whether href ends in a download extension, either as a
// direct suffix or followed by a query string. Matching ignores case.
func IsDownload(href string) bool {
	lower := strings.ToLower(href)
	for _, ext := range DownloadExtensions {
		if strings.HasSuffix(lower, "."+ext) || strings.Contains(lower, "."+ext+"?") {
			return true
		}
	}
	return false
}

// IsExternal reports whether href is an absolute http(s) URL whose host
// differs from the page host. A nil page is never external.
func IsExternal(page *url.URL, href string) bool {
	if page == nil {
		return false
	}
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return !strings.EqualFold(u.Hostname(), page.Hostname())
}

// FindAnchor walks from el up to the nearest A element.
// Returns nil if there is none.
func FindAnchor(el environment.Element) environment.Element {
	for el != nil {
		if strings.EqualFold(el.TagName(), "A") {
			return el
		}
		el = el.Parent()
	}
	return nil
}

// Classification is the result of Classify.
type Classification struct {
	Kind Kind
	Href string

	// Text is the anchor text content.
	Text string
}

// Classify decides how an activation of el on page is tracked.
// Download is evaluated first and wins over external.
func Classify(page *url.URL, el environment.Element) Classification {
	anchor := FindAnchor(el)
	if anchor == nil {
		return Classification{}
	}
	href, _ := anchor.Attr("href")
	if href == "" {
		return Classification{}
	}

	c := Classification{Href: href, Text: strings.TrimSpace(anchor.Text())}
	_, marked := anchor.Attr(downloadAttr)
	switch {
	case marked || IsDownload(href):
		c.Kind = KindDownload
	case IsExternal(page, href):
		c.Kind = KindOutbound
	}
	return c
}
