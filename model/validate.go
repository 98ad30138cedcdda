package model

import "github.com/go-playground/validator/v10"

var validate = validator.New()

func Validate(v any) error {
	return validate.Struct(v)
}

func ValidateVar(field any, tag string) error {
	return validate.Var(field, tag)
}
