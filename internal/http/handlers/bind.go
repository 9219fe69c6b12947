package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON binds and validates a request body, writing the 400 response
// itself on failure so handlers only deal with the happy path.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindDetails(err))
		return false
	}

	return true
}

func bindDetails(err error) interface{} {
	var (
		vErrs   validator.ValidationErrors
		synErr  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &vErrs):
		fields := make([]FieldError, 0, len(vErrs))

		for _, fe := range vErrs {
			fields = append(fields, FieldError{
				Field:   strings.ToLower(fe.Field()),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: ruleMessage(fe.Tag(), fe.Param()),
			})
		}

		return gin.H{"fields": fields}

	case errors.As(err, &synErr):
		return gin.H{"json": "invalid_json_syntax"}

	case errors.As(err, &typeErr):
		return gin.H{"json": "invalid_json_type", "field": typeErr.Field}
	}

	return gin.H{"reason": err.Error()}
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	}

	if param != "" {
		return "failed " + rule + " validation (" + param + ")"
	}

	return "failed " + rule + " validation"
}
