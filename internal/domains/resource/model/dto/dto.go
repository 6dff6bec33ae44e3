package dto

import (
	"mime/multipart"
	"tahaworld/internal/domains/resource/model"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
)

// CreateResourceRequest is read from a multipart form. File carries the upload for the file type,
// URL the target of a link or video.
type CreateResourceRequest struct {
	ConsultationID string                `json:"consultation_id" validate:"required,uuid"`
	Title          string                `json:"title"           validate:"required,max=200"`
	Description    string                `json:"description"     validate:"omitempty,max=2000"`
	Type           string                `json:"type"            validate:"required,oneof=file link video"`
	URL            string                `json:"url"             validate:"omitempty,url"`
	IsPublic       bool                  `json:"is_public"`
	File           *multipart.FileHeader `json:"file"            swaggerignore:"true" validate:"omitempty,maxfilesize=20"`
	FileData       multipart.File        `json:"-"`
}

func (c *CreateResourceRequest) ToModel(user, url string) model.Resource {
	return model.Resource{
		ID:             uuid.NewString(),
		ConsultationID: c.ConsultationID,
		Title:          c.Title,
		Description:    c.Description,
		Type:           c.Type,
		URL:            url,
		IsPublic:       c.IsPublic,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateResourceRequest struct {
	Title       *string `db:"title"       json:"title,omitempty"       validate:"omitempty,max=200"`
	Description *string `db:"description" json:"description,omitempty" validate:"omitempty,max=2000"`
	URL         *string `db:"url"         json:"url,omitempty"         validate:"omitempty,url"`
	IsPublic    *bool   `db:"is_public"   json:"is_public,omitempty"`
}

type ResourceResponse struct {
	ID             string `json:"id"`
	ConsultationID string `json:"consultation_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	URL            string `json:"url"`
	IsPublic       bool   `json:"is_public"`
	gDto.Metadata
}

func (r *ResourceResponse) FromModel(resource model.Resource) {
	r.ID = resource.ID
	r.ConsultationID = resource.ConsultationID
	r.Title = resource.Title
	r.Description = resource.Description
	r.Type = resource.Type
	r.URL = resource.URL
	r.IsPublic = resource.IsPublic
	r.Metadata.FromModel(resource.Metadata)
}

func NewResourceResponse(resource model.Resource) ResourceResponse {
	var res ResourceResponse
	res.FromModel(resource)

	return res
}
