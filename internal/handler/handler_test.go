package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/dto"
	"vowel-quiz/internal/handler"
	"vowel-quiz/internal/middleware"
	"vowel-quiz/internal/service"
	"vowel-quiz/internal/speech"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionID = "01HGZ8VNRYXS8QKNJV5GRWPWDQ"

// --- Manual Mocks ---

type MockSessionService struct {
	CreateFunc             func(ctx context.Context) (*dto.SessionResponse, error)
	GetFunc                func(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	AnswerFunc             func(ctx context.Context, sessionID, label string) (*dto.AnswerResponse, error)
	PlayVowelFunc          func(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	PlayWordFunc           func(ctx context.Context, sessionID, word string) (*dto.SessionResponse, error)
	CurrentQuestionKeyFunc func(ctx context.Context, sessionID string) (string, error)
	CloseFunc              func(ctx context.Context, sessionID string) error
}

func (m *MockSessionService) Create(ctx context.Context) (*dto.SessionResponse, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	panic("MockSessionService.CreateFunc not implemented")
}
func (m *MockSessionService) Get(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}
	panic("MockSessionService.GetFunc not implemented")
}
func (m *MockSessionService) Answer(ctx context.Context, sessionID, label string) (*dto.AnswerResponse, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, sessionID, label)
	}
	panic("MockSessionService.AnswerFunc not implemented")
}
func (m *MockSessionService) PlayVowel(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	if m.PlayVowelFunc != nil {
		return m.PlayVowelFunc(ctx, sessionID)
	}
	panic("MockSessionService.PlayVowelFunc not implemented")
}
func (m *MockSessionService) PlayWord(ctx context.Context, sessionID, word string) (*dto.SessionResponse, error) {
	if m.PlayWordFunc != nil {
		return m.PlayWordFunc(ctx, sessionID, word)
	}
	panic("MockSessionService.PlayWordFunc not implemented")
}
func (m *MockSessionService) CurrentQuestionKey(ctx context.Context, sessionID string) (string, error) {
	if m.CurrentQuestionKeyFunc != nil {
		return m.CurrentQuestionKeyFunc(ctx, sessionID)
	}
	panic("MockSessionService.CurrentQuestionKeyFunc not implemented")
}
func (m *MockSessionService) Close(ctx context.Context, sessionID string) error {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, sessionID)
	}
	panic("MockSessionService.CloseFunc not implemented")
}
func (m *MockSessionService) Run(ctx context.Context) error { return nil }

type MockSoundService struct {
	VowelSoundFunc func(ctx context.Context, key string) (*service.Sound, error)
	WordSoundFunc  func(ctx context.Context, word string) (*service.Sound, error)
}

func (m *MockSoundService) VowelSound(ctx context.Context, key string) (*service.Sound, error) {
	if m.VowelSoundFunc != nil {
		return m.VowelSoundFunc(ctx, key)
	}
	panic("MockSoundService.VowelSoundFunc not implemented")
}
func (m *MockSoundService) WordSound(ctx context.Context, word string) (*service.Sound, error) {
	if m.WordSoundFunc != nil {
		return m.WordSoundFunc(ctx, word)
	}
	panic("MockSoundService.WordSoundFunc not implemented")
}

type MockSpeaker struct {
	SpeakFunc func(ctx context.Context, text string, opts ...speech.Option) ([]byte, error)
}

func (m *MockSpeaker) Speak(ctx context.Context, text string, opts ...speech.Option) ([]byte, error) {
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text, opts...)
	}
	panic("MockSpeaker.SpeakFunc not implemented")
}

type MockCache struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) { return "", domain.ErrCacheMiss }
func (m *MockCache) Set(ctx context.Context, key, value string, _ time.Duration) error {
	return nil
}
func (m *MockCache) Delete(ctx context.Context, key string) error { return nil }
func (m *MockCache) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// --- Helpers ---

func newApp(sessions service.SessionService, sounds service.SoundService, speaker handler.Speaker) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	vm := middleware.NewValidationMiddleware()
	sh := handler.NewSessionHandler(sessions, []string{"or sound", "long a", "short e", "long oo"})
	snd := handler.NewSoundHandler(sessions, sounds)
	sp := handler.NewSpeechHandler(speaker, speech.ContentType)

	api := app.Group("/api")
	api.Get("/choices", sh.GetChoices)
	api.Get("/speech", sp.Speak)
	api.Get("/words/:word/sound", vm.ValidateWord(), snd.WordSound)
	api.Post("/sessions", sh.CreateSession)
	s := api.Group("/sessions/:id", vm.ValidateSessionID())
	s.Get("/", sh.GetSession)
	s.Post("/answer", sh.SubmitAnswer)
	s.Post("/play", sh.PlayVowel)
	s.Post("/words/:word/play", vm.ValidateWord(), sh.PlayWord)
	s.Get("/sound", snd.SessionSound)
	s.Delete("/", sh.CloseSession)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

// --- Tests ---

func TestSessionHandler_CreateAndGet(t *testing.T) {
	view := &dto.SessionResponse{SessionID: testSessionID, State: "unanswered"}
	svc := &MockSessionService{
		CreateFunc: func(ctx context.Context) (*dto.SessionResponse, error) { return view, nil },
		GetFunc: func(ctx context.Context, id string) (*dto.SessionResponse, error) {
			assert.Equal(t, testSessionID, id)
			return view, nil
		},
	}
	app := newApp(svc, &MockSoundService{}, nil)

	resp := doJSON(t, app, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.SessionResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &created))
	assert.Equal(t, testSessionID, created.SessionID)

	resp = doJSON(t, app, http.MethodGet, "/api/sessions/"+testSessionID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionHandler_GetUnknownSession(t *testing.T) {
	svc := &MockSessionService{
		GetFunc: func(ctx context.Context, id string) (*dto.SessionResponse, error) {
			return nil, domain.NewSessionNotFoundError(id)
		},
	}
	app := newApp(svc, &MockSoundService{}, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/sessions/"+testSessionID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, string(domain.CodeSessionNotFound), body.Code)
}

func TestSessionHandler_InvalidSessionID(t *testing.T) {
	app := newApp(&MockSessionService{}, &MockSoundService{}, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_SubmitAnswer(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		raw        string
		wantStatus int
		wantCall   bool
	}{
		{name: "valid", body: dto.AnswerRequest{Label: " long oo "}, wantStatus: http.StatusOK, wantCall: true},
		{name: "empty label", body: dto.AnswerRequest{Label: "  "}, wantStatus: http.StatusBadRequest},
		{name: "too long", body: dto.AnswerRequest{Label: strings.Repeat("x", 65)}, wantStatus: http.StatusBadRequest},
		{name: "malformed body", raw: "{", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &MockSessionService{
				AnswerFunc: func(ctx context.Context, id, label string) (*dto.AnswerResponse, error) {
					called = true
					assert.Equal(t, "long oo", label)
					return &dto.AnswerResponse{Result: "correct"}, nil
				},
			}
			app := newApp(svc, &MockSoundService{}, nil)

			var resp *http.Response
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/answer", strings.NewReader(tt.raw))
				req.Header.Set("Content-Type", "application/json")
				var err error
				resp, err = app.Test(req, -1)
				require.NoError(t, err)
			} else {
				resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+testSessionID+"/answer", tt.body)
			}

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCall, called)
			if tt.wantCall {
				var out dto.AnswerResponse
				require.NoError(t, json.Unmarshal(readBody(t, resp), &out))
				assert.Equal(t, "correct", out.Result)
			}
		})
	}
}

func TestSessionHandler_PlayAndClose(t *testing.T) {
	var playedWord string
	svc := &MockSessionService{
		PlayVowelFunc: func(ctx context.Context, id string) (*dto.SessionResponse, error) {
			return &dto.SessionResponse{SessionID: id}, nil
		},
		PlayWordFunc: func(ctx context.Context, id, word string) (*dto.SessionResponse, error) {
			playedWord = word
			return &dto.SessionResponse{SessionID: id}, nil
		},
		CloseFunc: func(ctx context.Context, id string) error { return nil },
	}
	app := newApp(svc, &MockSoundService{}, nil)

	resp := doJSON(t, app, http.MethodPost, "/api/sessions/"+testSessionID+"/play", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/sessions/"+testSessionID+"/words/through/play", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "through", playedWord)

	resp = doJSON(t, app, http.MethodDelete, "/api/sessions/"+testSessionID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSessionHandler_GetChoices(t *testing.T) {
	app := newApp(&MockSessionService{}, &MockSoundService{}, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/choices", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ChoicesResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &out))
	assert.Equal(t, []string{"or sound", "long a", "short e", "long oo"}, out.Choices)
}

func TestSoundHandler_SessionSound(t *testing.T) {
	svc := &MockSessionService{
		CurrentQuestionKeyFunc: func(ctx context.Context, id string) (string, error) { return "short-e", nil },
	}
	sounds := &MockSoundService{
		VowelSoundFunc: func(ctx context.Context, key string) (*service.Sound, error) {
			assert.Equal(t, "short-e", key)
			return &service.Sound{
				Path:        "vowels/short-e.mp3",
				ContentType: "audio/mpeg",
				Body:        io.NopCloser(strings.NewReader("ID3")),
			}, nil
		},
	}
	app := newApp(svc, sounds, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/sessions/"+testSessionID+"/sound", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "ID3", string(readBody(t, resp)))
}

func TestSoundHandler_AudioNotFound(t *testing.T) {
	svc := &MockSessionService{
		CurrentQuestionKeyFunc: func(ctx context.Context, id string) (string, error) { return "long-a", nil },
	}
	sounds := &MockSoundService{
		VowelSoundFunc: func(ctx context.Context, key string) (*service.Sound, error) {
			return nil, domain.NewAudioNotFoundError([]string{"vowels/long_a.mp3", "vowels/long-a.mp3"}, nil)
		},
	}
	app := newApp(svc, sounds, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/sessions/"+testSessionID+"/sound", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, string(domain.CodeAudioNotFound), body.Code)
}

func TestSoundHandler_WordSound(t *testing.T) {
	sounds := &MockSoundService{
		WordSoundFunc: func(ctx context.Context, word string) (*service.Sound, error) {
			assert.Equal(t, "storm", word)
			return &service.Sound{Path: "storm.mp3", ContentType: "audio/mpeg", Body: io.NopCloser(strings.NewReader("mp3"))}, nil
		},
	}
	app := newApp(&MockSessionService{}, sounds, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/words/storm/sound", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/words/st0rm/sound", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSpeechHandler_Speak(t *testing.T) {
	speaker := &MockSpeaker{
		SpeakFunc: func(ctx context.Context, text string, opts ...speech.Option) ([]byte, error) {
			assert.Equal(t, "hello", text)
			o := speech.DefaultOptions
			for _, opt := range opts {
				opt(&o)
			}
			assert.Equal(t, 120, o.Speed)
			assert.Equal(t, "m3", o.Variant)
			return []byte("RIFF"), nil
		},
	}
	app := newApp(&MockSessionService{}, &MockSoundService{}, speaker)

	resp := doJSON(t, app, http.MethodGet, "/api/speech?text=hello&speed=120&variant=m3", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, speech.ContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "RIFF", string(readBody(t, resp)))
}

func TestSpeechHandler_Errors(t *testing.T) {
	failing := &MockSpeaker{
		SpeakFunc: func(ctx context.Context, text string, opts ...speech.Option) ([]byte, error) {
			return nil, domain.NewSpeechUnavailableError(errors.New("voice missing"))
		},
	}

	tests := []struct {
		name       string
		speaker    handler.Speaker
		target     string
		wantStatus int
	}{
		{"missing text", failing, "/api/speech", http.StatusBadRequest},
		{"bad speed", failing, "/api/speech?text=hi&speed=fast", http.StatusBadRequest},
		{"pitch out of range", failing, "/api/speech?text=hi&pitch=150", http.StatusBadRequest},
		{"engine unavailable", failing, "/api/speech?text=hi", http.StatusServiceUnavailable},
		{"no speaker", nil, "/api/speech?text=hi", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&MockSessionService{}, &MockSoundService{}, tt.speaker)
			resp := doJSON(t, app, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		cache      domain.Cache
		wantStatus string
		wantCache  string
	}{
		{"no cache", nil, "ok", "none"},
		{"cache up", &MockCache{}, "ok", "redis"},
		{"cache down", &MockCache{PingFunc: func(ctx context.Context) error { return errors.New("dial tcp") }}, "degraded", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/healthz", handler.NewHealthHandler(tt.cache, "redis").Health)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var out dto.HealthResponse
			require.NoError(t, json.Unmarshal(readBody(t, resp), &out))
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantCache, out.Cache)
		})
	}
}
