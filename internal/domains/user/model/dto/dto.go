package dto

import (
	"tahaworld/internal/domains/user/model"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email             string  `json:"email"                        validate:"required,email,max=255"`
	Password          string  `json:"password"                     validate:"required,min=8,max=72"`
	FullName          string  `json:"full_name"                    validate:"required,min=2,max=100"`
	Phone             *string `json:"phone,omitempty"              validate:"omitempty,e164"`
	Level             string  `json:"level"                        validate:"omitempty,oneof=superadmin admin user"`
	PreferredLanguage string  `json:"preferred_language,omitempty" validate:"omitempty,lang"`
	IsVerified        bool    `json:"is_verified"`
}

func (r *CreateUserRequest) ToModel(username string, hashedPassword string) model.User {
	level := r.Level
	if level == "" {
		level = constant.RoleUser
	}

	language := r.PreferredLanguage
	if language == "" {
		language = constant.DefaultLanguage
	}

	return model.User{
		ID:                uuid.NewString(),
		Email:             r.Email,
		Password:          hashedPassword,
		Level:             level,
		FullName:          r.FullName,
		Phone:             r.Phone,
		PreferredLanguage: language,
		IsVerified:        r.IsVerified,
		Active:            true,
		Metadata:          gModel.NewMetadata(timezone.Now(), username),
	}
}

type UserResponse struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Level             string  `json:"level"`
	FullName          string  `json:"full_name"`
	Phone             *string `json:"phone,omitempty"`
	PreferredLanguage string  `json:"preferred_language"`
	ProfileImage      *string `json:"profile_image,omitempty"`
	IsVerified        bool    `json:"is_verified"`
	LastLogin         string  `json:"last_login,omitempty"`
	Active            bool    `json:"active"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(user model.User) {
	r.ID = user.ID
	r.Email = user.Email
	r.Level = user.Level
	r.FullName = user.FullName
	r.Phone = user.Phone
	r.PreferredLanguage = user.PreferredLanguage
	r.ProfileImage = user.ProfileImage
	r.IsVerified = user.IsVerified
	r.Active = user.Active

	if user.LastLogin != nil {
		r.LastLogin = timezone.Format(*user.LastLogin, constant.DateFormat)
	}

	r.Metadata.FromModel(user.Metadata)
}

func NewUserResponse(user model.User) UserResponse {
	var res UserResponse
	res.FromModel(user)

	return res
}

// UpdateUserRequest is the admin view of a user.
type UpdateUserRequest struct {
	FullName   *string `db:"full_name"   json:"full_name,omitempty"   validate:"omitempty,min=2,max=100"`
	Level      *string `db:"level"       json:"level,omitempty"       validate:"omitempty,oneof=superadmin admin user"`
	IsVerified *bool   `db:"is_verified" json:"is_verified,omitempty"`
	Active     *bool   `db:"active"      json:"active,omitempty"`
}

// UpdateProfileRequest is what a user may change on their own account.
// ProfileImage is a base64 data uri that gets uploaded to object storage.
type UpdateProfileRequest struct {
	FullName          *string `db:"full_name"          json:"full_name,omitempty"          validate:"omitempty,min=2,max=100"`
	Phone             *string `db:"phone"              json:"phone,omitempty"              validate:"omitempty,e164"`
	PreferredLanguage *string `db:"preferred_language" json:"preferred_language,omitempty" validate:"omitempty,lang"`
	ProfileImage      *string `json:"profile_image,omitempty" validate:"omitempty,mimetypes=image/jpeg image/png,maxfilesize=3"`
}

type DashboardResponse struct {
	UpcomingBookings       int `json:"upcoming_bookings"`
	PendingPaymentBookings int `json:"pending_payment_bookings"`
	CompletedBookings      int `json:"completed_bookings"`
	UnreadNotifications    int `json:"unread_notifications"`
	Certificates           int `json:"certificates"`
}

func (r *DashboardResponse) FromModel(dashboard model.Dashboard) {
	r.UpcomingBookings = dashboard.UpcomingBookings
	r.PendingPaymentBookings = dashboard.PendingPaymentBookings
	r.CompletedBookings = dashboard.CompletedBookings
	r.UnreadNotifications = dashboard.UnreadNotifications
	r.Certificates = dashboard.Certificates
}
