package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}

	return "invalid config: " + strings.Join(parts, " ")
}

var serverFields = []string{"Address", "SampleInterval"}

// Validate checks every field the client depends on.
func (c *Config) Validate() error {
	return translate(validate.Struct(c))
}

// ValidateServer checks only the server fields so a stray client setting
// in a shared .env does not keep the server from starting.
func (c *Config) ValidateServer() error {
	return translate(validate.StructPartial(c, serverFields...))
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string]string)
	for _, fe := range validationErrors {
		fieldName := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[fieldName] = fmt.Sprintf("The %s field is required.", fe.Field())
		case "url":
			fields[fieldName] = fmt.Sprintf("The %s must be a valid URL.", fe.Field())
		case "oneof":
			fields[fieldName] = fmt.Sprintf("The %s must be one of [%s].", fe.Field(), fe.Param())
		case "min":
			fields[fieldName] = fmt.Sprintf("The %s must be at least %s.", fe.Field(), fe.Param())
		case "max":
			fields[fieldName] = fmt.Sprintf("The %s must be at most %s.", fe.Field(), fe.Param())
		default:
			fields[fieldName] = fmt.Sprintf("The %s field is invalid.", fe.Field())
		}
	}

	return &ValidationError{Fields: fields}
}
