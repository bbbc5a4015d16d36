package inventory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageRepresentation_DropsRelationshipLists(t *testing.T) {
	raw := []byte(`{
		"id": "i-1",
		"title": "Title",
		"source": "FOLIO",
		"instanceTypeId": "type",
		"languages": ["eng"],
		"parentInstances": [{"superInstanceId": "p", "instanceRelationshipTypeId": "t"}],
		"childInstances": [],
		"precedingTitles": [{"title": "Before"}],
		"succeedingTitles": [{"title": "After"}]
	}`)

	out, err := StorageRepresentation(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"i-1","title":"Title","source":"FOLIO","instanceTypeId":"type","languages":["eng"]}`, string(out))
}

func TestStorageRepresentation_WithoutLists(t *testing.T) {
	raw := []byte(`{"id":"i-1","title":"Title"}`)
	out, err := StorageRepresentation(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestInstance_DecodesRelationshipLists(t *testing.T) {
	var inst Instance
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "i-1",
		"parentInstances": [{"id": null, "superInstanceId": "p", "instanceRelationshipTypeId": "t"}],
		"succeedingTitles": [{"id": "s-1", "succeedingInstanceId": "n", "identifiers": [{"value": "v", "identifierTypeId": "it"}]}]
	}`), &inst))

	require.Len(t, inst.ParentInstances, 1)
	assert.Empty(t, inst.ParentInstances[0].ID)
	assert.Equal(t, "p", inst.ParentInstances[0].SuperInstanceID)
	require.Len(t, inst.SucceedingTitles, 1)
	assert.Equal(t, "s-1", inst.SucceedingTitles[0].ID)
	assert.Equal(t, []Identifier{{Value: "v", IdentifierTypeID: "it"}}, inst.SucceedingTitles[0].Identifiers)
	assert.Nil(t, inst.ChildInstances)
}
