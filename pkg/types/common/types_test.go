package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate_ValidUUID(t *testing.T) {
	id := ID("550e8400-e29b-41d4-a716-446655440000")
	assert.NoError(t, id.Validate())
}

func TestID_Validate_EmptyString(t *testing.T) {
	err := ID("").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestID_Validate_InvalidFormat(t *testing.T) {
	err := ID("not-a-uuid").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID format")
}

func TestNewID_GeneratesDistinctValidUUIDs(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NoError(t, a.Validate())
	assert.NotEqual(t, a, b)
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	ts := Timestamp(time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "\"2023-10-27T10:00:00Z\"", string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	assert.Error(t, json.Unmarshal([]byte("\"invalid-date\""), &back))
}

func TestAPIResponse_OmitsEmpty(t *testing.T) {
	data, err := json.Marshal(APIResponse[any]{Error: &ErrorDetail{Code: "PDB_001", Message: "malformed PDB record"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
	assert.NotContains(t, string(data), `"request_id"`)
	assert.Contains(t, string(data), `"code":"PDB_001"`)
}

//Personal.AI order the ending
