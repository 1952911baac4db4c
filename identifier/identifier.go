// Package identifier generates opaque record identifiers shaped like
// xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
package identifier

import (
	"io"

	"github.com/google/uuid"
)

// Length of every generated identifier.
const Length = 36

// Generator produces identifiers from an entropy source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r. A nil r uses the default source.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a new identifier. If the configured source fails, the default source is used.
func (g *Generator) Generate() string {
	if g == nil || g.rand == nil {
		return uuid.NewString()
	}
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var defaultGenerator = NewGenerator(nil)

// Generate returns a new identifier from the default source.
func Generate() string {
	return defaultGenerator.Generate()
}
