package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "estatehub/pkg/domain-errors"
)

// TestParse_Invariants validates the parsing invariant at trust boundaries:
// IDs must be non-empty, well-formed UUIDs.
func TestParse_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePropertyID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTenantID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts nil UUID so stores can report not found", func(t *testing.T) {
		parsed, err := ParseUserID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsNil())
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParsePropertyID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, PropertyID(valid), parsed)
	})
}

func TestPropertyID_Compare(t *testing.T) {
	low := PropertyID(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	high := PropertyID(uuid.MustParse("ffffffff-0000-0000-0000-000000000000"))

	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
}

func TestIDs_JSONRoundTripAsString(t *testing.T) {
	tenantID := NewTenantID()

	raw, err := json.Marshal(map[string]TenantID{"tenant_id": tenantID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tenant_id":"`+tenantID.String()+`"}`, string(raw))

	var decoded map[string]TenantID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, tenantID, decoded["tenant_id"])
}
