package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldReaders(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data := map[string]any{
		"s":      "text",
		"b":      true,
		"i64":    int64(7),
		"f":      float64(3),
		"num":    json.Number("12"),
		"time":   ts,
		"rfc":    ts.Format(time.RFC3339Nano),
		"bad":    "yesterday",
		"list":   []any{"a", 1, "b"},
		"typed":  []string{"x"},
		"number": 5,
	}

	assert.Equal(t, "text", String(data, "s"))
	assert.Empty(t, String(data, "number"))
	assert.True(t, Bool(data, "b"))
	assert.False(t, Bool(data, "s"))

	assert.Equal(t, 7, Int(data, "i64"))
	assert.Equal(t, 3, Int(data, "f"))
	assert.Equal(t, 12, Int(data, "num"))
	assert.Equal(t, 5, Int(data, "number"))
	assert.Zero(t, Int(data, "missing"))

	got, ok := Time(data, "time")
	assert.True(t, ok)
	assert.True(t, ts.Equal(got))
	got, ok = Time(data, "rfc")
	assert.True(t, ok)
	assert.True(t, ts.Equal(got))
	_, ok = Time(data, "bad")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, Strings(data, "list"))
	assert.Equal(t, []string{"x"}, Strings(data, "typed"))
	assert.Nil(t, Strings(data, "s"))
}

func TestPhotoFromData(t *testing.T) {
	deletedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	photo := PhotoFromData("p1", "categories/c1/photos/p1", map[string]any{
		FieldCategoryID: "c1",
		FieldUserID:     "u1",
		FieldImageURL:   "https://img",
		FieldStatus:     PhotoStatusDeleted,
		FieldDeletedAt:  deletedAt,
	})
	assert.Equal(t, "c1", photo.CategoryID)
	assert.Equal(t, "u1", photo.UserID)
	assert.Equal(t, PhotoStatusDeleted, photo.Status)
	if assert.NotNil(t, photo.DeletedAt) {
		assert.True(t, deletedAt.Equal(*photo.DeletedAt))
	}

	active := PhotoFromData("p2", "categories/c1/photos/p2", map[string]any{})
	assert.Equal(t, PhotoStatusActive, active.Status)
	assert.Nil(t, active.DeletedAt)
}

func TestShortLinkFromData(t *testing.T) {
	link := ShortLinkFromData("Ab12Cd34", map[string]any{
		FieldLongURL:   "https://example.com",
		FieldClicks:    float64(4),
		FieldIsActive:  true,
		FieldCreatedBy: "u1",
	})
	assert.Equal(t, "Ab12Cd34", link.ShortCode)
	assert.Equal(t, 4, link.Clicks)
	assert.True(t, link.IsActive)
	assert.Nil(t, link.LastAccessed)
}
