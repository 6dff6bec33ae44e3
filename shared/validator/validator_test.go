package validator_test

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"tahaworld/shared/validator"
	"testing"

	"github.com/stretchr/testify/assert"
)

type slotTemplate struct {
	ConsultationID string `json:"consultation_id" validate:"required,uuid"`
	DayStart       string `json:"day_start"       validate:"required,clock"`
	Currency       string `json:"currency"        validate:"required,currency"`
	Language       string `json:"language"        validate:"omitempty,lang"`
}

type receiptUpload struct {
	Receipt *multipart.FileHeader `validate:"required,mimetypes=image/jpeg image/png application/pdf,maxfilesize=5"`
}

func TestValidateStruct(t *testing.T) {
	valid := slotTemplate{
		ConsultationID: "3f0c8a3e-4bb2-4f57-9a52-2f1e7a6e4b10",
		DayStart:       "09:30",
		Currency:       "SAR",
		Language:       "ar",
	}

	tests := []struct {
		name    string
		mutate  func(s *slotTemplate)
		wantMsg string
	}{
		{name: "valid", mutate: func(_ *slotTemplate) {}},
		{name: "missing consultation", mutate: func(s *slotTemplate) { s.ConsultationID = "" }, wantMsg: "ConsultationID is required"},
		{name: "bad uuid", mutate: func(s *slotTemplate) { s.ConsultationID = "nope" }, wantMsg: "ConsultationID must be a valid UUID"},
		{name: "bad clock", mutate: func(s *slotTemplate) { s.DayStart = "25:00" }, wantMsg: "DayStart must be a 24h time formatted as HH:MM"},
		{name: "bad currency", mutate: func(s *slotTemplate) { s.Currency = "RIYAL" }, wantMsg: "Currency must be an ISO-4217 currency code"},
		{name: "bad language", mutate: func(s *slotTemplate) { s.Language = "fr" }, wantMsg: "Language must be ar or en"},
		{name: "lower case currency", mutate: func(s *slotTemplate) { s.Currency = "sar" }, wantMsg: "Currency must be an ISO-4217 currency code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := valid
			tt.mutate(&data)

			err := validator.ValidateStruct(&data)
			if tt.wantMsg == "" {
				assert.NoError(t, err)

				return
			}

			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestValidate(t *testing.T) {
	var data slotTemplate

	err := validator.Validate(strings.NewReader(`{"consultation_id":`), &data)
	assert.ErrorContains(t, err, "failed to decode request body")

	err = validator.Validate(strings.NewReader(`{"consultation_id":"3f0c8a3e-4bb2-4f57-9a52-2f1e7a6e4b10","day_start":"08:00","currency":"KWD"}`), &data)
	assert.NoError(t, err)
	assert.Equal(t, "KWD", data.Currency)
}

func TestValidateOptional(t *testing.T) {
	type reason struct {
		Reason string `json:"reason" validate:"omitempty,max=5"`
	}

	var empty reason
	assert.NoError(t, validator.ValidateOptional(strings.NewReader(""), &empty))

	var long reason
	assert.Error(t, validator.ValidateOptional(strings.NewReader(`{"reason":"too long"}`), &long))

	var broken reason
	assert.ErrorContains(t, validator.ValidateOptional(strings.NewReader(`{"reason"`), &broken), "failed to decode request body")
}

func TestFileValidation(t *testing.T) {
	header := func(contentType string, size int64) *multipart.FileHeader {
		return &multipart.FileHeader{
			Filename: "receipt",
			Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
			Size:     size,
		}
	}

	tests := []struct {
		name    string
		file    *multipart.FileHeader
		wantErr bool
	}{
		{name: "png under limit", file: header("image/png", 1024)},
		{name: "pdf under limit", file: header("application/pdf", 4<<20)},
		{name: "wrong type", file: header("text/html", 1024), wantErr: true},
		{name: "too large", file: header("image/jpeg", 6<<20), wantErr: true},
		{name: "missing", file: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&receiptUpload{Receipt: tt.file})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("data:image/png;base64,AAAA", "mimetypes=image/png image/jpeg"))
	assert.Error(t, validator.ValidateVar("data:image/gif;base64,AAAA", "mimetypes=image/png image/jpeg"))
	assert.Error(t, validator.ValidateVar("", "required"))

	err := validator.ValidateVar("ABC", "required,alphanum,len=10")
	assert.EqualError(t, err, "value must be 10 characters long")
}
