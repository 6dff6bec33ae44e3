package model

import (
	"tahaworld/shared/model"
	"time"
)

const (
	TableName  = "certificates"
	EntityName = "certificate"

	FieldID               = "id"
	FieldUserID           = "user_id"
	FieldCourseID         = "course_id"
	FieldVerificationCode = "verification_code"
	FieldIssuedAt         = "issued_at"
	FieldRevokedAt        = "revoked_at"
	FieldRevokeReason     = "revoke_reason"

	ConstraintVerificationCode = "certificates_verification_code_key"
	ConstraintUserCourse       = "certificates_user_id_course_id_key"

	CacheVerify = "certificate:verify"
	CacheGetAll = "certificate:gets"
)

type Certificate struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	CourseID         string     `db:"course_id"`
	VerificationCode string     `db:"verification_code"`
	IssuedAt         time.Time  `db:"issued_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
	RevokeReason     string     `db:"revoke_reason"`
	HolderName       string     `column:"full_name" db:"holder_name"     table:"users"`
	CourseTitleAr    string     `column:"title_ar"  db:"course_title_ar" table:"courses"`
	CourseTitleEn    string     `column:"title_en"  db:"course_title_en" table:"courses"`
	model.Metadata
}

func (Certificate) GetJoinQuery() string {
	return "JOIN users ON users.id = certificates.user_id JOIN courses ON courses.id = certificates.course_id"
}

func (c Certificate) Revoked() bool {
	return c.RevokedAt != nil
}
