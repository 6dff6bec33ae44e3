package model

import "tahaworld/shared/model"

const (
	TableName  = "consultations"
	EntityName = "consultation"

	FieldID              = "id"
	FieldTitleAr         = "title_ar"
	FieldTitleEn         = "title_en"
	FieldDescriptionAr   = "description_ar"
	FieldDescriptionEn   = "description_en"
	FieldDurationMinutes = "duration_minutes"
	FieldPriceAmount     = "price_amount"
	FieldCurrency        = "currency"
	FieldType            = "type"
	FieldActive          = "active"
)

const (
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeChat     = "chat"
	TypeInPerson = "in_person"
)

type Consultation struct {
	ID              string `db:"id"`
	TitleAr         string `db:"title_ar"`
	TitleEn         string `db:"title_en"`
	DescriptionAr   string `db:"description_ar"`
	DescriptionEn   string `db:"description_en"`
	DurationMinutes int    `db:"duration_minutes"`
	PriceAmount     int64  `db:"price_amount"`
	Currency        string `db:"currency"`
	Type            string `db:"type"`
	Active          bool   `db:"active"`
	model.Metadata
}

// Title picks the title for lang, falling back to Arabic.
func (c Consultation) Title(lang string) string {
	if lang == "en" && c.TitleEn != "" {
		return c.TitleEn
	}

	return c.TitleAr
}
