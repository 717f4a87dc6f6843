// Package licensekey generates and checks human-typable license keys of the
// form XXXX-XXXX-XXXX-XXXX.
package licensekey

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alphabet omits 0/O and 1/I. Its length divides 256, so byte%len is unbiased.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	Groups    = 4
	GroupSize = 4
	Separator = "-"
)

// Length is the full key length including separators.
const Length = Groups*GroupSize + Groups - 1

var formatRe = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// Generate returns a new key drawn from crypto/rand.
func Generate() (string, error) {
	return generate(rand.Reader)
}

func generate(src io.Reader) (string, error) {
	buf := make([]byte, Groups*GroupSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	var b strings.Builder
	b.Grow(Length)
	for i, v := range buf {
		if i > 0 && i%GroupSize == 0 {
			b.WriteString(Separator)
		}
		b.WriteByte(Alphabet[int(v)%len(Alphabet)])
	}
	return b.String(), nil
}

// ValidFormat reports whether key is four hyphen-separated groups of four
// characters from [A-Z0-9]. The check is case-sensitive.
func ValidFormat(key string) bool {
	return formatRe.MatchString(key)
}
