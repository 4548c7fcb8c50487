package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

func TestNewFieldRecordHasEveryKey(t *testing.T) {
	rec := NewFieldRecord()

	assert.Equal(t, constants.AllFields(), rec.Keys())
	assert.Zero(t, rec.Matched())
	for _, f := range constants.AllFields() {
		assert.Equal(t, constants.NotFound, rec.Get(f), f)
	}
}

func TestFieldRecordSet(t *testing.T) {
	rec := NewFieldRecord()

	require.NoError(t, rec.Set(constants.FieldTaxID, "43.035.146/0061-16"))
	require.NoError(t, rec.Set(constants.FieldSeries, ""))
	assert.Error(t, rec.Set("valor_icms", "1,00"))

	assert.Equal(t, "43.035.146/0061-16", rec.Get(constants.FieldTaxID))
	assert.True(t, rec.Found(constants.FieldTaxID))
	assert.Equal(t, constants.NotFound, rec.Get(constants.FieldSeries), "empty values fall back to the sentinel")
	assert.False(t, rec.Found(constants.FieldSeries))
	assert.Equal(t, 1, rec.Matched())
	assert.Len(t, rec.Keys(), len(constants.Columns), "rejected keys never enter the record")
}

func TestFieldRecordRow(t *testing.T) {
	rec := NewFieldRecord()
	require.NoError(t, rec.Set(constants.FieldTaxID, "A"))
	require.NoError(t, rec.Set(constants.FieldINSS, "0,00"))

	row := rec.Row()
	require.Len(t, row, len(constants.Columns))
	assert.Equal(t, "A", row[0])
	assert.Equal(t, "0,00", row[len(row)-1])
	assert.Equal(t, constants.NotFound, row[1])
}

func TestFieldRecordJSON(t *testing.T) {
	rec := NewFieldRecord()
	require.NoError(t, rec.Set(constants.FieldState, "MG"))

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Len(t, got, len(constants.Columns))
	assert.Equal(t, "MG", got["uf"])
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(4, "/in/nfse 01.pdf")

	assert.Equal(t, 4, doc.Index)
	assert.Equal(t, "nfse 01.pdf", doc.Name)
	assert.NotEqual(t, NewDocument(4, "/in/nfse 01.pdf").ID, doc.ID)
}
