package resolver

import (
	"fmt"
	"strings"
)

const (
	schemeDelim = "//"
	hostDelim   = ".s3.amazonaws.com/"
)

// ParseReference splits "scheme://<bucket>.s3.amazonaws.com/<key>" into
// bucket and key. Parsing is textual only; the scheme is not checked.
func ParseReference(ref string) (bucket, key string, err error) {
	_, rest, ok := strings.Cut(ref, schemeDelim)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no %q", ErrMalformedReference, ref, schemeDelim)
	}

	bucket, key, ok = strings.Cut(rest, hostDelim)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no %q", ErrMalformedReference, ref, hostDelim)
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q has an empty bucket or key", ErrMalformedReference, ref)
	}
	return bucket, key, nil
}
