package utils

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations hooks our tags into gin's validator engine.
func RegisterCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("digits", validateDigits)
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func validateDigits(fl validator.FieldLevel) bool {
	return IsDigits(fl.Field().String())
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// TranslateValidationError turns binding errors into a single readable line.
func TranslateValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		messages := make([]string, 0, len(ve))
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				messages = append(messages, field+" is required")
			case "email":
				messages = append(messages, field+": invalid email format")
			case "min":
				messages = append(messages, field+" must be at least "+fe.Param()+" characters")
			case "max":
				messages = append(messages, field+" must be at most "+fe.Param()+" characters")
			case "len":
				messages = append(messages, field+" must be exactly "+fe.Param()+" characters")
			case "digits", "numeric":
				messages = append(messages, field+" must contain only digits")
			case "oneof":
				messages = append(messages, field+" must be one of: "+fe.Param())
			case "gt", "gte":
				messages = append(messages, field+" must be greater than "+fe.Param())
			default:
				messages = append(messages, field+" is invalid")
			}
		}
		return strings.Join(messages, ", ")
	}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		return "malformed JSON body"
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return te.Field + " has wrong type"
	}
	return err.Error()
}
