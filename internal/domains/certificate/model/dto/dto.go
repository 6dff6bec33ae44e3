package dto

import (
	"net/url"
	"tahaworld/internal/domains/certificate/model"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"time"

	"github.com/google/uuid"
)

type IssueCertificateRequest struct {
	UserID   string `json:"user_id"   validate:"required,uuid"`
	CourseID string `json:"course_id" validate:"required,uuid"`
}

func (c *IssueCertificateRequest) ToModel(user, code string, now time.Time) model.Certificate {
	return model.Certificate{
		ID:               uuid.NewString(),
		UserID:           c.UserID,
		CourseID:         c.CourseID,
		VerificationCode: code,
		IssuedAt:         now,
		Metadata:         gModel.NewMetadata(now, user),
	}
}

type RevokeCertificateRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CertificateResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	CourseID         string     `json:"course_id"`
	HolderName       string     `json:"holder_name"`
	CourseTitleAr    string     `json:"course_title_ar"`
	CourseTitleEn    string     `json:"course_title_en"`
	VerificationCode string     `json:"verification_code"`
	IssuedAt         time.Time  `json:"issued_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokeReason     string     `json:"revoke_reason,omitempty"`
}

func (r *CertificateResponse) FromModel(certificate model.Certificate) {
	r.ID = certificate.ID
	r.UserID = certificate.UserID
	r.CourseID = certificate.CourseID
	r.HolderName = certificate.HolderName
	r.CourseTitleAr = certificate.CourseTitleAr
	r.CourseTitleEn = certificate.CourseTitleEn
	r.VerificationCode = certificate.VerificationCode
	r.IssuedAt = certificate.IssuedAt
	r.RevokedAt = certificate.RevokedAt
	r.RevokeReason = certificate.RevokeReason
}

func NewCertificateResponse(certificate model.Certificate) CertificateResponse {
	var res CertificateResponse
	res.FromModel(certificate)

	return res
}

// VerificationResponse is what anyone holding a code may learn about a certificate.
type VerificationResponse struct {
	VerificationCode string    `json:"verification_code"`
	HolderName       string    `json:"holder_name"`
	CourseTitleAr    string    `json:"course_title_ar"`
	CourseTitleEn    string    `json:"course_title_en"`
	IssuedAt         time.Time `json:"issued_at"`
}

func (r *VerificationResponse) FromModel(certificate model.Certificate) {
	r.VerificationCode = certificate.VerificationCode
	r.HolderName = certificate.HolderName
	r.CourseTitleAr = certificate.CourseTitleAr
	r.CourseTitleEn = certificate.CourseTitleEn
	r.IssuedAt = certificate.IssuedAt
}

func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	filter.AddEq(model.FieldUserID, query.Get(model.FieldUserID), model.TableName)
	filter.AddEq(model.FieldCourseID, query.Get(model.FieldCourseID), model.TableName)

	return filter
}
