package middleware

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

// ErrorHandler writes the envelope for the last error a handler attached with
// c.Error. It is the only place error responses are rendered.
func ErrorHandler(log *logrus.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := Translate(err)

		entry := log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": appErr.Status(),
		})
		if appErr.Kind == utils.KindInternal {
			entry.WithError(err).Error("request failed")
		} else {
			entry.Debug(appErr.Message)
		}

		body := gin.H{
			"success": false,
			"message": appErr.Message,
		}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		if appErr.Kind == utils.KindInternal {
			if production {
				body["message"] = "Internal Server Error"
			} else {
				body["stack"] = fmt.Sprintf("%+v", appErr)
			}
		}
		c.JSON(appErr.Status(), body)
	}
}

// Translate maps any error onto the application error taxonomy.
func Translate(err error) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fieldErrs models.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return utils.ValidationFailed(fieldErrs)
	}

	var bindErrs validator.ValidationErrors
	if errors.As(err, &bindErrs) {
		return utils.ValidationFailed(bindingFields(bindErrs))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return utils.NewValidationError("Invalid request body")
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.NewNotFoundError("Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.NewConflictError("Duplicate field value entered")
	case errors.Is(err, utils.ErrTokenExpired), errors.Is(err, jwt.ErrTokenExpired):
		return utils.NewAuthError("Token expired")
	case errors.Is(err, utils.ErrInvalidToken), errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return utils.NewAuthError("Invalid token")
	}

	if _, traced := err.(stackTracer); !traced {
		err = errors.WithStack(err)
	}
	return &utils.AppError{Kind: utils.KindInternal, Message: "Server Error", Err: err}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func bindingFields(errs validator.ValidationErrors) models.ValidationErrors {
	var out models.ValidationErrors
	for _, fe := range errs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			msg = "Please provide a valid email"
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		case "max":
			msg = fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
		case "oneof":
			msg = fmt.Sprintf("Invalid %s", fe.Field())
		default:
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out.Add(fe.Field(), msg)
	}
	return out
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.Error(utils.NewNotFoundError("Route %s not found", c.Request.URL.Path))
}

// Recovery turns panics into internal errors rendered by ErrorHandler.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		err := errors.Errorf("panic: %v", recovered)
		log.WithField("path", c.Request.URL.Path).Error(err)
		c.Error(err)
		c.Abort()
	})
}
