package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// defaultMessage 未配置 error_msg 时的默认消息，以字段名开头
func defaultMessage(field string, fe validator.FieldError) string {
	name := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		name = field[i+1:]
	}
	if name == "" {
		name = "value"
	}

	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "ulid":
		return name + " must be a document id"
	case "url", "http_url":
		return name + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(strings.Fields(param), ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", name, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", name, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", name, param)
	case "min":
		return fmt.Sprintf("%s must have at least %s", name, param)
	case "max":
		return fmt.Sprintf("%s must have at most %s", name, param)
	case "len":
		return fmt.Sprintf("%s must have length %s", name, param)
	}
	if param != "" {
		return fmt.Sprintf("%s failed on '%s=%s'", name, fe.Tag(), param)
	}
	return fmt.Sprintf("%s failed on '%s'", name, fe.Tag())
}
