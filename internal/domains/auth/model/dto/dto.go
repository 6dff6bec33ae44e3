package dto

import (
	"tahaworld/infras/jwt"
	userModel "tahaworld/internal/domains/user/model"
	"tahaworld/shared/constant"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email             string  `json:"email"                        validate:"required,email,max=255"`
	Password          string  `json:"password"                     validate:"required,min=8,max=72"`
	FullName          string  `json:"full_name"                    validate:"required,min=2,max=100"`
	Phone             *string `json:"phone,omitempty"              validate:"omitempty,e164"`
	PreferredLanguage string  `json:"preferred_language,omitempty" validate:"omitempty,lang"`
}

// ToUserModel always registers a plain user, whatever the request carries.
func (r *RegisterRequest) ToUserModel(hashedPassword string) userModel.User {
	language := r.PreferredLanguage
	if language == "" {
		language = constant.DefaultLanguage
	}

	return userModel.User{
		ID:                uuid.NewString(),
		Email:             r.Email,
		Password:          hashedPassword,
		Level:             constant.RoleUser,
		FullName:          r.FullName,
		Phone:             r.Phone,
		PreferredLanguage: language,
		Active:            true,
		Metadata:          gModel.NewMetadata(timezone.Now(), constant.ContextGuest),
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateLastLoginRequest struct {
	LastLogin time.Time `db:"last_login"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (l *LoginResponse) FromTokenPair(tokenPair *jwt.TokenPair) {
	l.AccessToken = tokenPair.AccessToken
	l.RefreshToken = tokenPair.RefreshToken
	l.TokenType = tokenPair.TokenType
	l.ExpiresIn = tokenPair.ExpiresIn
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshTokenResponse = LoginResponse

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type UpdatePasswordRequest struct {
	Password string `db:"password"`
}
