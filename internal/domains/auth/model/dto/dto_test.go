package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tahaworld/infras/jwt"
	"tahaworld/internal/domains/auth/model/dto"
	"tahaworld/shared/constant"
)

func TestLoginResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    900,
	}

	var response dto.LoginResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, int64(900), response.ExpiresIn)
}

func TestRegisterRequest_ToUserModel(t *testing.T) {
	req := dto.RegisterRequest{Email: "client@example.com", FullName: "Client", PreferredLanguage: constant.LanguageEnglish}

	user := req.ToUserModel("hashed")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "hashed", user.Password)
	assert.Equal(t, constant.RoleUser, user.Level)
	assert.Equal(t, constant.LanguageEnglish, user.PreferredLanguage)
	assert.True(t, user.Active)
	assert.False(t, user.IsVerified)
	assert.Equal(t, constant.ContextGuest, user.CreatedBy)

	req.PreferredLanguage = ""
	assert.Equal(t, constant.DefaultLanguage, req.ToUserModel("hashed").PreferredLanguage)
}
