// Package filename builds download names for generated forms
package filename

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fallback is returned when nothing usable is left after sanitizing
const Fallback = "output"

// Suffix is appended to every document name
const Suffix = "_billing_form"

var illegal = regexp.MustCompile(`[\\/:*?"<>|]`)

// Sanitize makes name safe to use as a file name on common filesystems.
// The name is NFKD-normalized, characters illegal on Windows become "_",
// surrounding whitespace and then dots are trimmed.
func Sanitize(name string) string {
	name = norm.NFKD.String(name)
	name = illegal.ReplaceAllString(name, "_")
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return Fallback
	}
	return name
}

// ForDocument names a generated document after the site address, or the
// title when the address is blank. ext is given without the leading dot.
func ForDocument(siteAddress, title, ext string) string {
	base := siteAddress
	if strings.TrimSpace(base) == "" {
		base = title
	}
	return Sanitize(base) + Suffix + "." + strings.TrimPrefix(ext, ".")
}
