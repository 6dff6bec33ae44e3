package dto

import (
	"math"
	"net/url"
	"tahaworld/internal/domains/feedback/model"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
)

type CreateFeedbackRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating"     validate:"required,min=1,max=5"`
	Comment   string `json:"comment"    validate:"omitempty,max=2000"`
}

func (c *CreateFeedbackRequest) ToModel(user, consultationID string) model.Feedback {
	return model.Feedback{
		ID:             uuid.NewString(),
		BookingID:      c.BookingID,
		UserID:         user,
		ConsultationID: consultationID,
		Rating:         c.Rating,
		Comment:        c.Comment,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateFeedbackRequest struct {
	Rating  *int    `db:"rating"  json:"rating,omitempty"  validate:"omitempty,min=1,max=5"`
	Comment *string `db:"comment" json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type FeedbackResponse struct {
	ID             string `json:"id"`
	BookingID      string `json:"booking_id"`
	UserID         string `json:"user_id"`
	ConsultationID string `json:"consultation_id"`
	AuthorName     string `json:"author_name"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
	gDto.Metadata
}

func (r *FeedbackResponse) FromModel(feedback model.Feedback) {
	r.ID = feedback.ID
	r.BookingID = feedback.BookingID
	r.UserID = feedback.UserID
	r.ConsultationID = feedback.ConsultationID
	r.AuthorName = feedback.AuthorName
	r.Rating = feedback.Rating
	r.Comment = feedback.Comment
	r.Metadata.FromModel(feedback.Metadata)
}

func NewFeedbackResponse(feedback model.Feedback) FeedbackResponse {
	var res FeedbackResponse
	res.FromModel(feedback)

	return res
}

type SummaryResponse struct {
	ConsultationID string  `json:"consultation_id"`
	Average        float64 `json:"average"`
	Count          int     `json:"count"`
}

// FromModel rounds the average to two decimals.
func (r *SummaryResponse) FromModel(consultationID string, summary model.Summary) {
	r.ConsultationID = consultationID
	r.Average = math.Round(summary.Average*100) / 100
	r.Count = summary.Count
}

func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	filter.AddEq(model.FieldConsultationID, query.Get(model.FieldConsultationID), model.TableName)
	filter.AddEq(model.FieldUserID, query.Get(model.FieldUserID), model.TableName)
	filter.AddEq(model.FieldRating, query.Get(model.FieldRating), model.TableName)

	return filter
}
