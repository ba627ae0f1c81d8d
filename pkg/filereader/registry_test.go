package filereader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowIDRegistryRegister(t *testing.T) {
	r := NewRowIDRegistry()
	assert.True(t, r.Register("a"))
	assert.False(t, r.Register("a"))
	assert.True(t, r.Contains("a"))
	assert.False(t, r.Contains("b"))
	assert.Equal(t, 1, r.Len())
}

func TestRowIDRegistryUniquifyLowestUnused(t *testing.T) {
	r := NewRowIDRegistry()
	r.Register("a")
	r.Register("a_2")

	assert.Equal(t, "a_1", r.Uniquify("a"))
	assert.Equal(t, "a_3", r.Uniquify("a"))
	assert.Equal(t, "a_4", r.Uniquify("a"))
	assert.True(t, r.Contains("a_1"))
	assert.Equal(t, 5, r.Len())
}

func TestRowIDRegistryUniquifyAvoidsLiteralIDs(t *testing.T) {
	r := NewRowIDRegistry()
	r.Register("x")
	r.Register("x_1")

	// "x_1" is itself a base with its own suffixes
	assert.Equal(t, "x_2", r.Uniquify("x"))
	assert.Equal(t, "x_1_1", r.Uniquify("x_1"))
}

func TestRowIDRegistryReset(t *testing.T) {
	r := NewRowIDRegistry()
	r.Register("a")
	r.Uniquify("a")
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.True(t, r.Register("a"))
	assert.Equal(t, "a_1", r.Uniquify("a"))
}
