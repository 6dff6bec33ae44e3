package dto

import (
	"net/url"
	"strconv"
	"tahaworld/internal/domains/consultation/model"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/money"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
)

type CreateConsultationRequest struct {
	TitleAr         string `json:"title_ar"                 validate:"required,max=200"`
	TitleEn         string `json:"title_en"                 validate:"required,max=200"`
	DescriptionAr   string `json:"description_ar,omitempty" validate:"omitempty,max=5000"`
	DescriptionEn   string `json:"description_en,omitempty" validate:"omitempty,max=5000"`
	DurationMinutes int    `json:"duration_minutes"         validate:"required,min=15,max=480"`
	PriceAmount     int64  `json:"price_amount"             validate:"min=0"`
	Currency        string `json:"currency"                 validate:"required,currency"`
	Type            string `json:"type"                     validate:"required,oneof=video audio chat in_person"`
	Active          *bool  `json:"active,omitempty"`
}

func (c *CreateConsultationRequest) ToModel(user string) model.Consultation {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Consultation{
		ID:              uuid.NewString(),
		TitleAr:         c.TitleAr,
		TitleEn:         c.TitleEn,
		DescriptionAr:   c.DescriptionAr,
		DescriptionEn:   c.DescriptionEn,
		DurationMinutes: c.DurationMinutes,
		PriceAmount:     c.PriceAmount,
		Currency:        c.Currency,
		Type:            c.Type,
		Active:          active,
		Metadata:        gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateConsultationRequest struct {
	TitleAr         *string `db:"title_ar"         json:"title_ar,omitempty"         validate:"omitempty,max=200"`
	TitleEn         *string `db:"title_en"         json:"title_en,omitempty"         validate:"omitempty,max=200"`
	DescriptionAr   *string `db:"description_ar"   json:"description_ar,omitempty"   validate:"omitempty,max=5000"`
	DescriptionEn   *string `db:"description_en"   json:"description_en,omitempty"   validate:"omitempty,max=5000"`
	DurationMinutes *int    `db:"duration_minutes" json:"duration_minutes,omitempty" validate:"omitempty,min=15,max=480"`
	PriceAmount     *int64  `db:"price_amount"     json:"price_amount,omitempty"     validate:"omitempty,min=0"`
	Currency        *string `db:"currency"         json:"currency,omitempty"         validate:"omitempty,currency"`
	Type            *string `db:"type"             json:"type,omitempty"             validate:"omitempty,oneof=video audio chat in_person"`
	Active          *bool   `db:"active"           json:"active,omitempty"`
}

type ConsultationResponse struct {
	ID              string `json:"id"`
	TitleAr         string `json:"title_ar"`
	TitleEn         string `json:"title_en"`
	DescriptionAr   string `json:"description_ar"`
	DescriptionEn   string `json:"description_en"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceAmount     int64  `json:"price_amount"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
	gDto.Metadata
}

func (r *ConsultationResponse) FromModel(consultation model.Consultation) {
	r.ID = consultation.ID
	r.TitleAr = consultation.TitleAr
	r.TitleEn = consultation.TitleEn
	r.DescriptionAr = consultation.DescriptionAr
	r.DescriptionEn = consultation.DescriptionEn
	r.DurationMinutes = consultation.DurationMinutes
	r.PriceAmount = consultation.PriceAmount
	r.Price = money.FormatMinor(consultation.PriceAmount, consultation.Currency)
	r.Currency = consultation.Currency
	r.Type = consultation.Type
	r.Active = consultation.Active
	r.Metadata.FromModel(consultation.Metadata)
}

func NewConsultationResponse(consultation model.Consultation) ConsultationResponse {
	var res ConsultationResponse
	res.FromModel(consultation)

	return res
}

// FilterFromQuery reads the list filters. Titles match in either language.
func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	filter.AddEq(model.FieldType, query.Get(model.FieldType), model.TableName)
	filter.AddEq(model.FieldCurrency, query.Get(model.FieldCurrency), model.TableName)

	if title := query.Get("title"); title != "" {
		filter.Add(gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorOr,
			Filters: []any{
				gDto.Filter{Field: model.FieldTitleAr, Value: title, Operator: gDto.FilterOperatorLike, Table: model.TableName},
				gDto.Filter{Field: model.FieldTitleEn, Value: title, Operator: gDto.FilterOperatorLike, Table: model.TableName},
			},
		})
	}

	if active, err := strconv.ParseBool(query.Get(model.FieldActive)); err == nil {
		filter.Add(gDto.Filter{Field: model.FieldActive, Value: active, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	return filter
}
