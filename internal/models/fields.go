package models

import (
	"encoding/json"
	"time"
)

// Field names as stored in documents
const (
	FieldUserID          = "userID"
	FieldOwnerID         = "userId"
	FieldUID             = "uid"
	FieldPhotoID         = "photoId"
	FieldCategoryID      = "categoryId"
	FieldRecorderUser    = "recorderUser"
	FieldImageURL        = "imageUrl"
	FieldAudioURL        = "audioUrl"
	FieldStatus          = "status"
	FieldDeletedAt       = "deletedAt"
	FieldCreatedAt       = "createdAt"
	FieldRecipientUserID = "recipientUserId"
	FieldActorUserID     = "actorUserId"
	FieldMates           = "mates"
	FieldName            = "name"
	FieldProfileImage    = "profileImage"
	FieldEmoji           = "emoji"
	FieldLongURL         = "longUrl"
	FieldCreatedBy       = "createdBy"
	FieldCreatedByName   = "createdByName"
	FieldClicks          = "clicks"
	FieldIsActive        = "isActive"
	FieldCustomImageURL  = "customImageUrl"
	FieldLastAccessed    = "lastAccessed"
)

// String reads a string field, returning "" for anything else
func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// Bool reads a boolean field
func Bool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

// Int reads a numeric field regardless of how the driver decoded it
func Int(data map[string]any, key string) int {
	switch n := data[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		v, _ := n.Int64()
		return int(v)
	}
	return 0
}

// Time reads a timestamp stored either natively or as RFC 3339 text
func Time(data map[string]any, key string) (time.Time, bool) {
	switch t := data[key].(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// Strings reads a list of strings
func Strings(data map[string]any, key string) []string {
	switch list := data[key].(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
