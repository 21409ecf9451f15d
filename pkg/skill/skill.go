// Skill identity and run identifiers.
package skill

import (
	"crypto/rand"
	"io"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var nonWord = regexp.MustCompile(`\W+`)

// Normalize strips every non-word character from name. The result is safe to
// use as a Lambda function name and to splice unescaped into JSON templates.
func Normalize(name string) string {
	return nonWord.ReplaceAllString(name, "")
}

// NewRunID returns a version 4 UUID drawn from entropy.
func NewRunID(entropy io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate run identifier")
	}
	return id.String(), nil
}

// RunID returns a fresh version 4 UUID from crypto/rand.
func RunID() string {
	id, err := NewRunID(rand.Reader)
	if err != nil {
		panic(err)
	}
	return id
}
