package catalog

import "strings"

// DefaultImageBaseURL is the catalog's image CDN root.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p"

const (
	PosterSize   = "w500"
	BackdropSize = "w780"
)

// Images resolves stored relative image paths into absolute CDN URLs.
//
// Paths are stored relative ("/abc.jpg") everywhere and only resolved when a
// response is rendered.
type Images struct {
	BaseURL string
}

// NewImages returns an Images for base. An empty base means the default CDN.
func NewImages(base string) Images {
	if base == "" {
		base = DefaultImageBaseURL
	}
	return Images{BaseURL: strings.TrimRight(base, "/")}
}

// Poster resolves a poster path.
func (i Images) Poster(path string) string {
	return i.URL(path, PosterSize)
}

// Backdrop resolves a backdrop path.
func (i Images) Backdrop(path string) string {
	return i.URL(path, BackdropSize)
}

// URL resolves path at the given size. Empty paths stay empty; absolute URLs
// on other hosts are returned unchanged.
func (i Images) URL(path, size string) string {
	path = NormalizeImagePath(path)
	if path == "" || isAbsolute(path) {
		return path
	}
	return i.BaseURL + "/" + size + path
}

// NormalizeImagePath reduces an image reference to its canonical relative
// form. Absolute CDN URLs ("https://image.tmdb.org/t/p/w500/abc.jpg") lose
// their host and size prefix; bare file names gain a leading slash.
func NormalizeImagePath(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsolute(ref) {
		idx := strings.Index(ref, "/t/p/")
		if idx < 0 {
			return ref
		}
		rest := ref[idx+len("/t/p/"):]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ref
		}
		return rest[slash:]
	}
	if !strings.HasPrefix(ref, "/") {
		return "/" + ref
	}
	return ref
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
