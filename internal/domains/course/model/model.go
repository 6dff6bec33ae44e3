package model

import "tahaworld/shared/model"

const (
	TableName  = "courses"
	EntityName = "course"
	Directory  = "courses"

	FieldID            = "id"
	FieldTitleAr       = "title_ar"
	FieldTitleEn       = "title_en"
	FieldDescriptionAr = "description_ar"
	FieldDescriptionEn = "description_en"
	FieldLevel         = "level"
	FieldPrice         = "price"
	FieldCurrency      = "currency"
	FieldThumbnail     = "thumbnail"
	FieldPublished     = "published"

	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"

	CacheGet    = "course:get"
	CacheGetAll = "course:gets"
)

type Course struct {
	ID            string `db:"id"`
	TitleAr       string `db:"title_ar"`
	TitleEn       string `db:"title_en"`
	DescriptionAr string `db:"description_ar"`
	DescriptionEn string `db:"description_en"`
	Level         string `db:"level"`
	Price         int64  `db:"price"`
	Currency      string `db:"currency"`
	Thumbnail     string `db:"thumbnail"`
	Published     bool   `db:"published"`
	model.Metadata
}

// Title picks the title for lang, falling back to Arabic.
func (c Course) Title(lang string) string {
	if lang == "en" && c.TitleEn != "" {
		return c.TitleEn
	}

	return c.TitleAr
}
