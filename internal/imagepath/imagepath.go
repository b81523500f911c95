// Package imagepath derives collision-resistant, URL-safe storage paths for
// uploaded images. All functions are pure; callers pass one timestamp per
// file so the year/month directory and the timestamp prefix always agree.
package imagepath

import (
	"fmt"
	"strings"
	"time"
)

// Fallback values when sanitization empties a name component.
const (
	FallbackBase = "pasted-image"
	FallbackExt  = "png"
)

var mimeExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
	"image/bmp":     "bmp",
}

// StoragePath is a derived repository path for one image. Stamp, Year and
// Month come from the same instant.
type StoragePath struct {
	Year  string
	Month string
	Stamp string
	Base  string
	Ext   string
}

// String renders the canonical path: images/{year}/{month}/{stamp}-{base}.{ext}.
func (p StoragePath) String() string {
	return "images/" + p.Year + "/" + p.Month + "/" + p.Stamp + "-" + p.Base + "." + p.Ext
}

// Build derives the storage path for a file name and MIME type at the given
// instant. A missing extension is inferred from the MIME type.
func Build(name, mimeType string, now time.Time) StoragePath {
	base, ext := splitName(name)
	if ext == "" {
		ext = ExtFromMime(mimeType)
	}
	return StoragePath{
		Year:  now.Format("2006"),
		Month: now.Format("01"),
		Stamp: now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/int(time.Millisecond)),
		Base:  SanitizeBase(base),
		Ext:   SanitizeExt(ext),
	}
}

// ExtFromMime maps a MIME type to a file extension; unknown types map to png.
func ExtFromMime(mimeType string) string {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if ext, ok := mimeExtensions[mime]; ok {
		return ext
	}
	return FallbackExt
}

// SanitizeBase lowercases the base name and replaces every run of characters
// outside [a-z0-9._-] with a single dash, collapsing repeats and trimming
// dashes at either end.
func SanitizeBase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			// covers '-' itself and any disallowed run
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return FallbackBase
	}
	return out
}

// SanitizeExt lowercases the extension and strips every non-alphanumeric rune.
func SanitizeExt(ext string) string {
	var b strings.Builder
	b.Grow(len(ext))
	for _, r := range strings.ToLower(ext) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return FallbackExt
	}
	return b.String()
}

// splitName splits on the last dot; names without a dot have no extension.
func splitName(name string) (base, ext string) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}
