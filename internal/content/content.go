// Package content turns raw file bytes into the text sitefs hands back to
// callers.
package content

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const bom = "\uFEFF"

// Normalize drops a single leading byte order mark and converts CRLF line
// endings to LF. Lone CR characters are left alone.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, bom)
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Decode converts data from the named encoding to a UTF-8 string. Names are
// WHATWG labels such as "latin1", "utf-16le" or "shift_jis". An empty name
// or "utf-8" returns the bytes unchanged.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// Lookup resolves an encoding name. It returns a nil Encoding for UTF-8,
// which needs no transformation.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}
