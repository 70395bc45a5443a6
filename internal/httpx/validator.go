package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"bookpublish/internal/printspec"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("trim_size", validateTrimSize)
}

// MustRegisterStringValidation adds a tag for string fields. Domain packages
// call it from init so request structs can use their rules.
func MustRegisterStringValidation(tag string, fn func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func validateTrimSize(fl validator.FieldLevel) bool {
	_, err := printspec.ParseTrimSize(fl.Field().String())
	return err == nil
}

// ValidateStruct returns one detail per failing field, named after its JSON
// tag path.
func ValidateStruct(s interface{}) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "body", Message: err.Error()}}
	}

	var details []ErrorDetail
	for _, fe := range verrs {
		field := fe.Field()
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "isbn":
			message = fmt.Sprintf("%s must be a valid ISBN-10 or ISBN-13", field)
		case "trim_size":
			message = fmt.Sprintf("%s must look like 6x9", field)
		case "gte", "lte", "min", "max":
			message = fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ErrorDetail{Field: field, Message: message})
	}
	return details
}

// DecodeJSON reads a JSON body into v, rejecting unknown fields. It writes
// the error response itself and reports whether the handler may continue.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return false
		}
		JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", []ErrorDetail{{Field: "body", Message: err.Error()}})
		return false
	}
	if details := ValidateStruct(v); len(details) > 0 {
		JSONError(w, r, http.StatusUnprocessableEntity, "INVALID_INPUT", "Request validation failed", details)
		return false
	}
	return true
}
