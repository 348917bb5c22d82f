package dto

import (
	"github.com/BloggingApp/writerspace/internal/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const MinPasswordLength = 6

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(MinPasswordLength, 0).Error("password should be at least 6 characters")),
		validation.Field(&r.DisplayName, validation.Required, validation.RuneLength(1, 80)),
	)
}

type FederatedSignInRequest struct {
	IDToken string `json:"id_token"`
}

func (r FederatedSignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
	)
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}
