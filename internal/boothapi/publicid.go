package boothapi

import (
	"errors"
	"path"
	"regexp"
	"strings"
)

// ErrNoPublicID is returned when an image URL carries no storage public id.
var ErrNoPublicID = errors.New("no public id in image URL")

var versionSegment = regexp.MustCompile(`^v\d+/`)

// PublicID extracts the storage public id from an uploaded image URL: the
// path after "/upload/", without a leading "v<version>/" segment and
// without the file extension.
//
//	https://res.example.com/demo/image/upload/v123/user_tempelets/men/classic/x.jpg
//	-> user_tempelets/men/classic/x
func PublicID(imageURL string) (string, error) {
	_, rest, ok := strings.Cut(imageURL, "/upload/")
	if !ok {
		return "", ErrNoPublicID
	}
	rest, _, _ = strings.Cut(rest, "?")
	rest = versionSegment.ReplaceAllString(rest, "")

	if ext := path.Ext(rest); ext != "" {
		rest = strings.TrimSuffix(rest, ext)
	}
	if rest == "" {
		return "", ErrNoPublicID
	}
	return rest, nil
}
