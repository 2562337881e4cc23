package domain

import validation "github.com/go-ozzo/ozzo-validation"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (p Pagination) Validate() error {
	return NewFieldError(validation.ValidateStruct(&p,
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
		validation.Field(&p.Offset, validation.Min(0)),
	))
}
