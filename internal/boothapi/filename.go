package boothapi

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SafeFilename normalizes an uploaded file name so the stored public id
// stays ASCII: no diacritics, lowercase, runs of other characters collapsed
// to a dash. The extension is kept.
func SafeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.ToLower(RemoveDiacritics(strings.TrimSuffix(name, filepath.Ext(name))))

	var b strings.Builder
	dash := false
	for _, r := range stem {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	stem = strings.TrimRight(b.String(), "-")
	if stem == "" {
		stem = "template"
	}
	return stem + ext
}
