// internal/models/question_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOptionsList(t *testing.T) {
	raw := json.RawMessage(`[{"id":"A","text":"cat"},{"id":"B","text":"dog"}]`)
	opts, err := DecodeOptions(raw)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, Option{ID: "A", Text: "cat"}, opts[0])
	assert.Equal(t, Option{ID: "B", Text: "dog"}, opts[1])
}

func TestDecodeOptionsKeyedObject(t *testing.T) {
	raw := json.RawMessage(`{"C":"three","A":"one","B":"two"}`)
	opts, err := DecodeOptions(raw)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	// Keyed objects are sorted by id so every client renders the same order.
	assert.Equal(t, "A", opts[0].ID)
	assert.Equal(t, "B", opts[1].ID)
	assert.Equal(t, "C", opts[2].ID)
	assert.Equal(t, "two", opts[1].Text)
}

func TestDecodeOptionsRejectsBadShapes(t *testing.T) {
	_, err := DecodeOptions(nil)
	assert.Error(t, err)

	_, err = DecodeOptions(json.RawMessage(`42`))
	assert.Error(t, err)
}
