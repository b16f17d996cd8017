package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect_SubCollection(t *testing.T) {
	sql, args, err := buildSelect(SubCollection("users/u1", "friends").WithLimit(450))
	require.NoError(t, err)

	assert.Equal(t, `SELECT path, data FROM documents WHERE collection = $1 AND parent = $2 ORDER BY path LIMIT $3`, sql)
	assert.Equal(t, []any{"friends", "users/u1", 450}, args)
}

func TestBuildSelect_GroupWithFilters(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := CollectionGroup("photos").
		Where("status", OpEq, "deleted").
		Where("deletedAt", OpLte, cutoff)

	sql, args, err := buildSelect(q)
	require.NoError(t, err)

	assert.Equal(t, `SELECT path, data FROM documents WHERE collection = $1`+
		` AND data @> $2::jsonb AND (data->>$3)::timestamptz <= $4 ORDER BY path`, sql)
	assert.Equal(t, []any{"photos", `{"status":"deleted"}`, "deletedAt", cutoff}, args)
}

func TestBuildSelect_ArrayContains(t *testing.T) {
	_, args, err := buildSelect(Collection("categories").Where("mates", OpArrayContains, "u1"))
	require.NoError(t, err)
	assert.Equal(t, `{"mates":["u1"]}`, args[2])
}

func TestBuildSelect_UnsupportedRangeValue(t *testing.T) {
	_, _, err := buildSelect(Collection("x").Where("f", OpLte, []string{"a"}))
	assert.Error(t, err)
}

func TestEncodeData_TimesAsText(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	raw, err := encodeData(map[string]any{"deletedAt": at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deletedAt":"2025-02-03T04:05:06Z"}`, raw)
}

func TestDecodeRow(t *testing.T) {
	doc, err := decodeRow("categories/c1/photos/p1", []byte(`{"status":"active"}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, "active", doc.Data["status"])
}
