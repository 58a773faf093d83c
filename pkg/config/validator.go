package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// collectionNamePattern matches names accepted by both vector store providers:
// a leading alphanumeric followed by alphanumerics, dots, hyphens or underscores.
var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

const maxCollectionNameLength = 255

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("collection_name", validateCollectionName)
}

func validateCollectionName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > maxCollectionNameLength {
		return false
	}
	return collectionNamePattern.MatchString(name)
}
