package model

import (
	"strings"
	"time"
)

type LoginReq struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

func (r *LoginReq) Validate() error {
	r.Username = strings.TrimSpace(r.Username)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// LoginResp is returned by a successful login.
type LoginResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

type RegisterReq struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required"`
}

func (r *RegisterReq) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Role = strings.TrimSpace(r.Role)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if strings.ContainsAny(r.Username, " \t\r\n") {
		return NewFieldError("username", "must not contain whitespace")
	}
	if !AllowedRoles[r.Role] {
		return NewFieldError("role", "must be one of [QC Analyst, QC Manager, Admin, Auditor]")
	}
	return nil
}
