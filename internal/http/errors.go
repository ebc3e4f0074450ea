package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"dashboard-api/internal/domain"
)

type errorResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
	Details string       `json:"details,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var fieldLabels = map[string]string{
	"email":           "Email",
	"password":        "Password",
	"currentPassword": "Current password",
	"newPassword":     "New password",
	"confirmPassword": "Password confirmation",
	"content":         "Content",
}

var registerOnce sync.Once

// registerValidations makes validator report json names instead of Go field
// names and adds email_address, which checks the address after trimming it the
// way the auth service normalizes emails.
func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
			return v.Var(strings.TrimSpace(fl.Field().String()), "email") == nil
		})
	})
}

// respondError converts service errors into the client facing taxonomy.
// Anything that is not a *domain.Error is logged and hidden behind a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		h.internalError(c, err)
		return
	}

	var status int
	switch de.Kind {
	case domain.KindValidation, domain.KindConflict:
		status = http.StatusBadRequest
	case domain.KindAuthentication:
		status = http.StatusUnauthorized
	case domain.KindNotFound:
		status = http.StatusNotFound
	default:
		h.internalError(c, err)
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{Status: "error", Message: de.Error()})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log(c).WithError(err).Error("request failed")
	resp := errorResponse{Status: "error", Message: "Internal server error"}
	if h.cfg.Development && err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Status: "error", Message: "Invalid request body"})
		return
	}

	fields := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Status:  "error",
		Message: "Validation failed",
		Errors:  fields,
	})
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email", "email_address":
		return "Please enter a valid email address"
	case "min":
		return label + " must be at least " + fe.Param() + " characters long"
	case "eqfield":
		return "Passwords do not match"
	default:
		return label + " is invalid"
	}
}
