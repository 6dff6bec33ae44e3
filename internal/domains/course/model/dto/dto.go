package dto

import (
	"mime/multipart"
	"net/url"
	"tahaworld/internal/domains/course/model"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/money"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
)

// CreateCourseRequest is read from a multipart form so the thumbnail can travel with it.
type CreateCourseRequest struct {
	TitleAr       string                `json:"title_ar"       validate:"required,max=200"`
	TitleEn       string                `json:"title_en"       validate:"required,max=200"`
	DescriptionAr string                `json:"description_ar" validate:"omitempty,max=5000"`
	DescriptionEn string                `json:"description_en" validate:"omitempty,max=5000"`
	Level         string                `json:"level"          validate:"required,oneof=beginner intermediate advanced"`
	Price         int64                 `json:"price"          validate:"min=0"`
	Currency      string                `json:"currency"       validate:"required,currency"`
	Published     *bool                 `json:"published"`
	Thumbnail     *multipart.FileHeader `json:"thumbnail"      swaggerignore:"true" validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ThumbnailFile multipart.File        `json:"-"`
}

func (c *CreateCourseRequest) ToModel(user, thumbnailURL string) model.Course {
	published := false
	if c.Published != nil {
		published = *c.Published
	}

	return model.Course{
		ID:            uuid.NewString(),
		TitleAr:       c.TitleAr,
		TitleEn:       c.TitleEn,
		DescriptionAr: c.DescriptionAr,
		DescriptionEn: c.DescriptionEn,
		Level:         c.Level,
		Price:         c.Price,
		Currency:      c.Currency,
		Thumbnail:     thumbnailURL,
		Published:     published,
		Metadata:      gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateCourseRequest struct {
	TitleAr       *string               `db:"title_ar"       json:"title_ar,omitempty"       validate:"omitempty,max=200"`
	TitleEn       *string               `db:"title_en"       json:"title_en,omitempty"       validate:"omitempty,max=200"`
	DescriptionAr *string               `db:"description_ar" json:"description_ar,omitempty" validate:"omitempty,max=5000"`
	DescriptionEn *string               `db:"description_en" json:"description_en,omitempty" validate:"omitempty,max=5000"`
	Level         *string               `db:"level"          json:"level,omitempty"          validate:"omitempty,oneof=beginner intermediate advanced"`
	Price         *int64                `db:"price"          json:"price,omitempty"          validate:"omitempty,min=0"`
	Currency      *string               `db:"currency"       json:"currency,omitempty"       validate:"omitempty,currency"`
	Published     *bool                 `db:"published"      json:"published,omitempty"`
	Thumbnail     *multipart.FileHeader `json:"thumbnail"      swaggerignore:"true" validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ThumbnailFile multipart.File        `json:"-"`
}

// Empty reports whether the request changes nothing.
func (u *UpdateCourseRequest) Empty() bool {
	return u.TitleAr == nil && u.TitleEn == nil && u.DescriptionAr == nil && u.DescriptionEn == nil &&
		u.Level == nil && u.Price == nil && u.Currency == nil && u.Published == nil && u.Thumbnail == nil
}

type CourseResponse struct {
	ID            string `json:"id"`
	TitleAr       string `json:"title_ar"`
	TitleEn       string `json:"title_en"`
	DescriptionAr string `json:"description_ar"`
	DescriptionEn string `json:"description_en"`
	Level         string `json:"level"`
	PriceAmount   int64  `json:"price_amount"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	Thumbnail     string `json:"thumbnail"`
	Published     bool   `json:"published"`
	gDto.Metadata
}

func (r *CourseResponse) FromModel(course model.Course) {
	r.ID = course.ID
	r.TitleAr = course.TitleAr
	r.TitleEn = course.TitleEn
	r.DescriptionAr = course.DescriptionAr
	r.DescriptionEn = course.DescriptionEn
	r.Level = course.Level
	r.PriceAmount = course.Price
	r.Price = money.FormatMinor(course.Price, course.Currency)
	r.Currency = course.Currency
	r.Thumbnail = course.Thumbnail
	r.Published = course.Published
	r.Metadata.FromModel(course.Metadata)
}

func NewCourseResponse(course model.Course) CourseResponse {
	var res CourseResponse
	res.FromModel(course)

	return res
}

// FilterFromQuery understands ?level= and ?currency=.
func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	filter.AddEq(model.FieldLevel, query.Get(model.FieldLevel), model.TableName)
	filter.AddEq(model.FieldCurrency, query.Get(model.FieldCurrency), model.TableName)

	return filter
}
