package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorRouter(production bool, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(quietLogger(), production), Recovery(quietLogger()))
	r.GET("/fail", handler)
	r.NoRoute(NotFound)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTranslate(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{}
	tests := []struct {
		name    string
		err     error
		kind    utils.ErrorKind
		status  int
		message string
	}{
		{"app error passes through", utils.NewForbiddenError("nope"), utils.KindForbidden, 403, "nope"},
		{"wrapped app error", errors.Wrap(utils.NewNotFoundError("Material not found"), "ctx"), utils.KindNotFound, 404, "Material not found"},
		{"record not found", gorm.ErrRecordNotFound, utils.KindNotFound, 404, "Resource not found"},
		{"duplicate key", gorm.ErrDuplicatedKey, utils.KindConflict, 400, "Duplicate field value entered"},
		{"expired token", utils.ErrTokenExpired, utils.KindAuth, 401, "Token expired"},
		{"invalid token", utils.ErrInvalidToken, utils.KindAuth, 401, "Invalid token"},
		{"empty body", io.EOF, utils.KindValidation, 400, "Invalid request body"},
		{"malformed json", syntaxErr, utils.KindValidation, 400, "Invalid request body"},
		{"anything else", errors.New("disk on fire"), utils.KindInternal, 500, "Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.Status())
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestTranslateFieldErrors(t *testing.T) {
	var fields models.ValidationErrors
	fields.Add("title", "Please provide a title")
	fields.Add("semester", "Please provide the semester")

	got := Translate(fields)
	assert.Equal(t, utils.KindValidation, got.Kind)
	assert.Equal(t, "Please provide a title. Please provide the semester", got.Message)
	assert.Len(t, got.Fields, 2)
}

func TestErrorEnvelope(t *testing.T) {
	r := errorRouter(false, func(c *gin.Context) {
		c.Error(utils.NewConflictError("Email already exists"))
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email already exists", body["message"])
	assert.NotContains(t, body, "stack")
}

func TestInternalErrorDetail(t *testing.T) {
	handler := func(c *gin.Context) {
		c.Error(utils.Internal(errors.New("connection refused"), "could not load material"))
	}

	w := serve(errorRouter(false, handler), httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "could not load material", body["message"])
	assert.Contains(t, body["stack"], "connection refused")
	assert.Contains(t, body["stack"], "utils.Internal")
	assert.Contains(t, body["stack"], "TestInternalErrorDetail")

	w = serve(errorRouter(true, handler), httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.NotContains(t, body, "stack")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestUntypedErrorGetsStack(t *testing.T) {
	w := serve(errorRouter(false, func(c *gin.Context) {
		c.Error(io.ErrClosedPipe)
	}), httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Server Error", body["message"])
	assert.Contains(t, body["stack"], "io: read/write on closed pipe")
	assert.Contains(t, body["stack"], "middleware.Translate")
}

func TestBindingErrorsUseFieldMessages(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	input := struct {
		Email string `binding:"required,email"`
		Role  string `binding:"oneof=student admin"`
		Title string `binding:"max=3"`
	}{Role: "wizard", Title: "too long"}

	got := Translate(v.Struct(input))
	assert.Equal(t, utils.KindValidation, got.Kind)
	assert.Equal(t, http.StatusBadRequest, got.Status())
	require.Len(t, got.Fields, 3)
	assert.Equal(t, "Email is required", got.Fields[0].Message)
	assert.Equal(t, "Invalid Role", got.Fields[1].Message)
	assert.Equal(t, "Title cannot exceed 3 characters", got.Fields[2].Message)
}

func TestPanicRendersEnvelope(t *testing.T) {
	r := errorRouter(true, func(c *gin.Context) {
		panic("boom")
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	r := errorRouter(false, func(c *gin.Context) {})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(decode(t, w)["message"].(string), "/api/nothing"))
}
