package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{
		"zeta":  1,
		"alpha": 2,
		"mid":   map[string]any{"b": true, "a": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":{"a":null,"b":true},"zeta":1}`, got)
}

func TestCanonicalJSONNoWhitespace(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"list": []any{1, "two", false}})
	require.NoError(t, err)
	assert.Equal(t, `{"list":[1,"two",false]}`, got)
}

func TestCanonicalJSONPreservesNonASCII(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"text": "आप अकेले नहीं हैं।"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"आप अकेले नहीं हैं।"}`, got)
}

func TestCanonicalJSONEscapesControlCharacters(t *testing.T) {
	got, err := CanonicalJSON("line\nbreak\ttab \"quote\" back\\slash")
	require.NoError(t, err)
	assert.Equal(t, `"line\nbreak\ttab \"quote\" back\\slash"`, got)
}

func TestCanonicalJSONIntegralFloats(t *testing.T) {
	// encoding/json unmarshals all numbers as float64; integral values must
	// render without a fractional part.
	got, err := CanonicalJSON(map[string]any{"n": float64(42), "f": 1.5})
	require.NoError(t, err)
	assert.Equal(t, `{"f":1.5,"n":42}`, got)
}

func TestCanonicalJSONRejectsUnsupportedTypes(t *testing.T) {
	_, err := CanonicalJSON(struct{ X int }{X: 1})
	assert.Error(t, err)
}

func TestSHA256HexKnownVector(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(""))
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		SHA256Hex("hello"))
}

func TestArtifactDigestStable(t *testing.T) {
	value := map[string]any{"b": []any{1, 2}, "a": "x"}
	first, err := ArtifactDigest(value)
	require.NoError(t, err)
	second, err := ArtifactDigest(map[string]any{"a": "x", "b": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}
