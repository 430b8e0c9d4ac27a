package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLLMObject(t *testing.T) {
	var out struct {
		Core      []string `json:"core"`
		Secondary []string `json:"secondary"`
	}

	raw := "Sure!\n```json\n{\"core\": [\"rice\"], \"secondary\": [\"salt\"]}\n```"
	require.NoError(t, DecodeLLMObject(raw, &out))
	assert.Equal(t, []string{"rice"}, out.Core)
	assert.Equal(t, []string{"salt"}, out.Secondary)

	require.NoError(t, DecodeLLMObject(`{core: ["egg"], secondary: []}`, &out))
	assert.Equal(t, []string{"egg"}, out.Core)

	assert.Error(t, DecodeLLMObject("no json here", &out))
}

func TestExtractJSONArray(t *testing.T) {
	body, ok := ExtractJSONArray("```\n[{\"id\":1}]\n```")
	require.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, body)

	_, ok = ExtractJSONArray("]oops[")
	assert.False(t, ok)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
	assert.NoError(t, ParseJSON(`{"a":1}`, &v))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, Round(12.345678, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestGenerateUUID(t *testing.T) {
	assert.Len(t, GenerateUUID(), 36)
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}
