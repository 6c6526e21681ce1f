package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want Tags
	}{
		{"", nil},
		{"type:EXPENSE", Tags{{Key: "type", Value: "EXPENSE"}}},
		{"region:eu,type:ASSET", Tags{{Key: "region", Value: "eu"}, {Key: "type", Value: "ASSET"}}},
		{"empty:", Tags{{Key: "empty", Value: ""}}},
	}
	for _, tt := range tests {
		got, err := ParseTags(tt.in)
		require.NoError(t, err, "ParseTags(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseTags(%q)", tt.in)
	}
}

func TestParseTags_Malformed(t *testing.T) {
	for _, in := range []string{"novalue", ":x", "a:b:c"} {
		_, err := ParseTags(in)
		assert.ErrorIs(t, err, ErrInvalidTag, "ParseTags(%q)", in)
	}
}

func TestTagsStringRoundTrip(t *testing.T) {
	tags := Tags{{Key: "type", Value: "EXPENSE"}, {Key: "owner", Value: "ops"}}
	require.NoError(t, tags.Validate())

	got, err := ParseTags(tags.String())
	require.NoError(t, err)
	assert.Equal(t, tags, got)
}

func TestTagsValidate_RejectsSeparators(t *testing.T) {
	assert.ErrorIs(t, Tags{{Key: "note", Value: "a,b"}}.Validate(), ErrInvalidTag)
	assert.ErrorIs(t, Tags{{Key: "k:x", Value: "v"}}.Validate(), ErrInvalidTag)
	assert.ErrorIs(t, Tags{{Key: "", Value: "v"}}.Validate(), ErrInvalidTag)
}

func TestTagsWith(t *testing.T) {
	base := Tags{{Key: "a", Value: "1"}}
	updated := base.With("a", "2").With("b", "3")

	assert.Equal(t, Tags{{Key: "a", Value: "2"}, {Key: "b", Value: "3"}}, updated)
	assert.Equal(t, "1", base[0].Value, "With must not mutate the receiver")
}
