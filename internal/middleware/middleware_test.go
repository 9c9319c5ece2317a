package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vowel-quiz/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validULID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"session not found", domain.NewSessionNotFoundError("x"), http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"audio not found", domain.NewAudioNotFoundError([]string{"a.mp3"}, nil), http.StatusNotFound, "AUDIO_NOT_FOUND"},
		{"invalid input", domain.NewInvalidInputError("bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"speech unavailable", domain.NewSpeechUnavailableError(errors.New("no engine")), http.StatusServiceUnavailable, "SPEECH_UNAVAILABLE"},
		{"wrapped internal", errors.Join(errors.New("ctx"), domain.NewInternalError("boom", nil)), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"validation", domain.ValidationErrors{domain.NewMissingFieldError("label")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"fiber", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]interface{}
			decode(t, resp, &body)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestErrorHandler_DetailsCarryContext(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewSessionNotFoundError("abc") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "abc", body.Details["session_id"])
}

func TestValidateSessionID(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp()
	app.Get("/s/:id", vm.ValidateSessionID(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalSessionID).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/s/"+validULID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, validULID, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/s/not-a-ulid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateWord(t *testing.T) {
	vm := NewValidationMiddleware()
	app := newTestApp()
	app.Get("/w/:word", vm.ValidateWord(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalWord).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/w/through", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/w/t00", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	app := newTestApp()
	app.Use(RequestLogger())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
