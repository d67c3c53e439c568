package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Use(Fallback))
	defer Use("")

	assert.Equal("undefined symbol 'foo'", From("undefined symbol '%v'", "foo"))
	assert.Equal("line 12", From("line %v", 12))
}

func TestUse(t *testing.T) {
	assert := assert.New(t)

	defer Use("")

	assert.Error(Use("not a language!"))
	assert.NoError(Use("fr-FR"))
	assert.Equal("plain", From("plain"))
	assert.NoError(Use(""))
}
