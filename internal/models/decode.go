package models

// PhotoFromData builds a Photo from raw document fields
func PhotoFromData(id, path string, data map[string]any) *Photo {
	photo := &Photo{
		ID:         id,
		Path:       path,
		CategoryID: String(data, FieldCategoryID),
		UserID:     String(data, FieldUserID),
		ImageURL:   String(data, FieldImageURL),
		AudioURL:   String(data, FieldAudioURL),
		Status:     String(data, FieldStatus),
	}
	if t, ok := Time(data, FieldDeletedAt); ok {
		photo.DeletedAt = &t
	}
	if t, ok := Time(data, FieldCreatedAt); ok {
		photo.CreatedAt = t
	}
	if photo.Status == "" {
		photo.Status = PhotoStatusActive
	}
	return photo
}

// CategoryFromData builds a Category from raw document fields
func CategoryFromData(id string, data map[string]any) *Category {
	return &Category{
		ID:    id,
		Name:  String(data, FieldName),
		Mates: Strings(data, FieldMates),
	}
}

// ShortLinkFromData builds a ShortLink from raw document fields
func ShortLinkFromData(code string, data map[string]any) *ShortLink {
	link := &ShortLink{
		ShortCode:      code,
		LongURL:        String(data, FieldLongURL),
		CreatedBy:      String(data, FieldCreatedBy),
		CreatedByName:  String(data, FieldCreatedByName),
		Clicks:         Int(data, FieldClicks),
		IsActive:       Bool(data, FieldIsActive),
		CustomImageURL: String(data, FieldCustomImageURL),
	}
	if t, ok := Time(data, FieldCreatedAt); ok {
		link.CreatedAt = t
	}
	if t, ok := Time(data, FieldLastAccessed); ok {
		link.LastAccessed = &t
	}
	return link
}
