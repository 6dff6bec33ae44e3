package model

import (
	"tahaworld/shared/model"
	"time"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID                = "id"
	FieldEmail             = "email"
	FieldPassword          = "password"
	FieldLevel             = "level"
	FieldFullName          = "full_name"
	FieldPhone             = "phone"
	FieldPreferredLanguage = "preferred_language"
	FieldProfileImage      = "profile_image"
	FieldIsVerified        = "is_verified"
	FieldLastLogin         = "last_login"
	FieldActive            = "active"
)

type User struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	Password          string     `db:"password"`
	Level             string     `db:"level"`
	FullName          string     `db:"full_name"`
	Phone             *string    `db:"phone"`
	PreferredLanguage string     `db:"preferred_language"`
	ProfileImage      *string    `db:"profile_image"`
	IsVerified        bool       `db:"is_verified"`
	LastLogin         *time.Time `db:"last_login"`
	Active            bool       `db:"active"`
	model.Metadata
}

// Dashboard holds the per user counters shown on the profile page.
type Dashboard struct {
	UpcomingBookings       int `db:"upcoming_bookings"`
	PendingPaymentBookings int `db:"pending_payment_bookings"`
	CompletedBookings      int `db:"completed_bookings"`
	UnreadNotifications    int `db:"unread_notifications"`
	Certificates           int `db:"certificates"`
}
