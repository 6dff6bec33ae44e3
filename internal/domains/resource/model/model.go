package model

import "tahaworld/shared/model"

const (
	TableName  = "consultation_resources"
	EntityName = "resource"

	FieldID             = "id"
	FieldConsultationID = "consultation_id"
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldType           = "type"
	FieldURL            = "url"
	FieldIsPublic       = "is_public"

	Directory = "resources"

	CacheGet    = "resource:get"
	CacheGetAll = "resource:gets"
)

const (
	TypeFile  = "file"
	TypeLink  = "link"
	TypeVideo = "video"
)

type Resource struct {
	ID             string `db:"id"`
	ConsultationID string `db:"consultation_id"`
	Title          string `db:"title"`
	Description    string `db:"description"`
	Type           string `db:"type"`
	URL            string `db:"url"`
	IsPublic       bool   `db:"is_public"`
	model.Metadata
}

// Stored reports whether the resource lives in object storage.
func (r Resource) Stored() bool {
	return r.Type == TypeFile
}
