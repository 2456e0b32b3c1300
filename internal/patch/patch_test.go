package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePair_RoundTrip(t *testing.T) {
	before := "line one\nline two\nline three\n"
	after := "line one\nline 2\nline three\nline four\n"

	pair := MakePair(before, after)
	assert.NotEmpty(t, pair.Forward)
	assert.NotEmpty(t, pair.Reverse)

	restored, err := Apply(before, pair.Forward)
	assert.NoError(t, err)
	assert.Equal(t, after, restored)

	recovered, err := Apply(after, pair.Reverse)
	assert.NoError(t, err)
	assert.Equal(t, before, recovered)
}

func TestMakePair_IdenticalInputs(t *testing.T) {
	pair := MakePair("same\ntext\n", "same\ntext\n")
	assert.Empty(t, pair.Forward)
	assert.Empty(t, pair.Reverse)
}

func TestMakePair_Deterministic(t *testing.T) {
	before := "a\nb\nc\n"
	after := "a\nc\nd\n"
	first := MakePair(before, after)
	second := MakePair(before, after)
	assert.Equal(t, first, second)
}
