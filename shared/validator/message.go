package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var (
	messages = map[string]string{
		"required":    "{field} is required",
		"required_if": "{field} is required",
		"gt":          "{field} must be greater than {param}",
		"gte":         "{field} must be greater than or equal to {param}",
		"lte":         "{field} must be less than or equal to {param}",
		"oneof":       "{field} must be one of {param}",
		"max":         "{field} must be less than or equal to {param}",
		"min":         "{field} must be greater than or equal to {param}",
		"email":       "{field} must be a valid email address",
		"uuid":        "{field} must be a valid UUID",
		"url":         "{field} must be a valid URL",
		"iso4217":     "{field} must be an ISO-4217 currency code",
		"currency":    "{field} must be an ISO-4217 currency code",
		"lang":        "{field} must be ar or en",
		"datetime":    "{field} must match the layout {param}",
		"clock":       "{field} must be a 24h time formatted as HH:MM",
		"mimetypes":   "{field} must be one of {param}",
		"maxfilesize": "{field} must not exceed {param} MB",
		"unique":      "{field} must not contain duplicates",
		"alphanum":    "{field} must contain only letters and digits",
		"len":         "{field} must be {param} characters long",
	}
)

func message(err error) string {
	var valErrors val.ValidationErrors

	if errors.As(err, &valErrors) {
		for _, valErr := range valErrors {
			errStr := messages[valErr.Tag()]
			if errStr != "" {
				field := valErr.Field()
				if field == "" {
					field = "value"
				}

				errStr = strings.ReplaceAll(errStr, "{field}", field)
				errStr = strings.ReplaceAll(errStr, "{param}", valErr.Param())

				return errStr
			}
		}

		return valErrors.Error()
	}

	return err.Error()
}
