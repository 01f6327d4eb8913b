package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

func TestFieldsTolerateLooseTypes(t *testing.T) {
	f, ok := wire.Decode([]byte(`{"a":"2","b":2.9,"c":"x","d":null,"e":true,"f":[1],"g":" 1.5 ","h":7}`))
	require.True(t, ok)

	assert.Equal(t, 2, f.Int("a"))
	assert.Equal(t, 2, f.Int("b"))
	assert.Zero(t, f.Int("c"))
	assert.Zero(t, f.Float("d"))
	assert.Zero(t, f.Float("e"))
	assert.Zero(t, f.Float("f"))
	assert.Equal(t, 1.5, f.Float("g"))

	assert.Equal(t, "x", f.String("c"))
	assert.Equal(t, "7", f.String("h"))
	assert.Equal(t, "true", f.String("e"))
	assert.Empty(t, f.String("f"))
	assert.Nil(t, f.StringPtr("d"))

	assert.Equal(t, "x", f.String("missing", "d", "c"), "first present key wins")
	assert.False(t, f.Has("d", "missing"))
	assert.True(t, f.Has("a"))
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"x"`, `{"broken"`} {
		_, ok := wire.Decode([]byte(raw))
		assert.False(t, ok, raw)
	}
}
