package model

import "strings"

// SignTestRecordReq re-asserts the signer's identity at the moment of signing.
type SignTestRecordReq struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
	Meaning  string `json:"meaning" validate:"required"`
	Comments string `json:"comments" validate:"omitempty,max=1000"`
}

func (r *SignTestRecordReq) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Meaning = strings.TrimSpace(r.Meaning)
	r.Comments = strings.TrimSpace(r.Comments)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if !AllowedMeanings[r.Meaning] {
		return NewFieldError("meaning", "must be one of [Tested by, Reviewed by, Approved by]")
	}
	return nil
}
