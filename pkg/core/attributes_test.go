package core_test

import (
	"errors"
	"testing"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStringList(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []string
		wantErr bool
	}{
		{name: "empty", value: "", want: []string{}},
		{name: "flow sequence", value: "[a, b]", want: []string{"a", "b"}},
		{name: "quoted titles", value: "['$:core/parser', \"x y\"]", want: []string{"$:core/parser", "x y"}},
		{name: "block sequence", value: "- one\n- two\n", want: []string{"one", "two"}},
		{name: "empty sequence", value: "[]", want: []string{}},
		{name: "bare scalar", value: "not valid", want: []string{}, wantErr: true},
		{name: "numbers", value: "[1, 2]", want: []string{}, wantErr: true},
		{name: "mapping", value: "{a: b}", want: []string{}, wantErr: true},
		{name: "broken yaml", value: "[a, b", want: []string{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.DecodeStringList(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeAttributes_DegradesOnMalformedTags(t *testing.T) {
	computed, diags := core.ComputeAttributes("s1", core.Attributes{
		core.AttrTags: "not valid",
		core.AttrList: "[x]",
	})

	assert.Equal(t, []string{}, computed.Tags)
	assert.Equal(t, []string{"x"}, computed.List)
	require.Len(t, diags, 1)

	var schemaErr *core.AttributeSchemaError
	require.True(t, errors.As(diags[0], &schemaErr))
	assert.Equal(t, "s1", schemaErr.ScribbleID)
	assert.Equal(t, core.AttrTags, schemaErr.Key)
}

func TestScribble_AttributeMutationRecomputes(t *testing.T) {
	s := core.NewSynced("s1", "body", core.Attributes{core.AttrTags: "[a]"})
	assert.Equal(t, []string{"a"}, s.Computed.Tags)

	updated := s.WithAttribute(core.AttrTags, "[a, b]")
	assert.Equal(t, []string{"a", "b"}, updated.Computed.Tags)
	assert.Equal(t, []string{"a"}, s.Computed.Tags, "original must not change")

	broken := updated.WithAttribute(core.AttrTags, "not valid")
	assert.Equal(t, []string{}, broken.Computed.Tags)
	assert.Equal(t, "not valid", broken.Attributes[core.AttrTags])
	require.Len(t, broken.SchemaErrors(), 1)
	var schemaErr *core.AttributeSchemaError
	assert.ErrorAs(t, broken.SchemaErrors()[0], &schemaErr)
	assert.Empty(t, updated.SchemaErrors())

	removed := updated.WithoutAttribute(core.AttrTags)
	assert.Equal(t, []string{}, removed.Computed.Tags)
	_, ok := removed.Attributes[core.AttrTags]
	assert.False(t, ok)

	replaced := updated.WithAttributes(core.Attributes{core.AttrList: "[z]"})
	assert.Equal(t, []string{}, replaced.Computed.Tags)
	assert.Equal(t, []string{"z"}, replaced.Computed.List)
}
