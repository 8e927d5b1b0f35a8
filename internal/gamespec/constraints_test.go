package gamespec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	r := &Resolver{}
	c, err := r.Resolve(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "android", c.Platform)
	assert.Equal(t, "prototype", c.Scope)
	assert.Equal(t, "pixel-art", c.ArtStyle)
	assert.Equal(t, "2D", c.Dimension)
	assert.False(t, c.Online)
	assert.Nil(t, c.Seed)
}

func TestResolveFlagPrecedence(t *testing.T) {
	online := true
	seed := int64(42)
	r := &Resolver{}
	c, err := r.Resolve(Overrides{
		Platform: "android+ios",
		Scope:    "vertical-slice",
		ArtStyle: "hand-drawn",
		Online:   &online,
		Genre:    "idle_rpg",
		Seed:     &seed,
	})
	require.NoError(t, err)

	assert.Equal(t, "android+ios", c.Platform)
	assert.Equal(t, "vertical-slice", c.Scope)
	assert.Equal(t, "hand-drawn", c.ArtStyle)
	assert.True(t, c.Online)
	assert.Equal(t, "idle_rpg", c.Genre)
	require.NotNil(t, c.Seed)
	assert.Equal(t, int64(42), *c.Seed)
}

func TestResolveAggregatesEnumErrors(t *testing.T) {
	r := &Resolver{}
	_, err := r.Resolve(Overrides{Platform: "ios", Scope: "full-game"})
	require.Error(t, err)

	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "platform", errs[0].Field)
	assert.Equal(t, ErrInvalidEnumValue, errs[0].Code)
	assert.Equal(t, "scope", errs[1].Field)
}

func TestResolveDimensionOverrideDropped(t *testing.T) {
	r := &Resolver{}
	c, err := r.Resolve(Overrides{Dimension: "3D"})
	require.NoError(t, err)
	assert.Equal(t, "2D", c.Dimension)
}

func TestResolveInteractiveAnswers(t *testing.T) {
	in := strings.NewReader("hand-drawn\nandroid+ios\nyes\nvertical-slice\n")
	var out bytes.Buffer
	r := &Resolver{Interactive: true, In: in, Out: &out}

	c, err := r.Resolve(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "hand-drawn", c.ArtStyle)
	assert.Equal(t, "android+ios", c.Platform)
	assert.True(t, c.Online)
	assert.Equal(t, "vertical-slice", c.Scope)
	assert.Contains(t, out.String(), "Art style")
}

func TestResolveInteractiveEmptyAnswersKeepDefaults(t *testing.T) {
	in := strings.NewReader("\n\n\n\n")
	var out bytes.Buffer
	r := &Resolver{Interactive: true, In: in, Out: &out}

	c, err := r.Resolve(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "pixel-art", c.ArtStyle)
	assert.Equal(t, "android", c.Platform)
	assert.False(t, c.Online)
	assert.Equal(t, "prototype", c.Scope)
}

func TestResolveInteractiveInvalidEnumIgnored(t *testing.T) {
	in := strings.NewReader("\nios\n\n\n")
	var out bytes.Buffer
	r := &Resolver{Interactive: true, In: in, Out: &out}

	c, err := r.Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "android", c.Platform)
}

func TestResolveInteractiveSkipsFlaggedFields(t *testing.T) {
	// Platform supplied by flag: only art style, online and scope prompt.
	in := strings.NewReader("\n\n\n")
	var out bytes.Buffer
	r := &Resolver{Interactive: true, In: in, Out: &out}

	c, err := r.Resolve(Overrides{Platform: "android+ios"})
	require.NoError(t, err)
	assert.Equal(t, "android+ios", c.Platform)
	assert.NotContains(t, out.String(), "Target platform")
}
