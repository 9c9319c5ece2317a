package dto

import "vowel-quiz/internal/highlight"

// SessionResponse is everything the quiz screen renders.
// @Description Quiz session view
type SessionResponse struct {
	SessionID  string                `json:"session_id"`
	Question   QuestionResponse      `json:"question"`
	Choices    []ChoiceResponse      `json:"choices"`
	Examples   []ExampleWordResponse `json:"examples"`
	Score      ScoreResponse         `json:"score"`
	State      string                `json:"state"`
	Locked     bool                  `json:"locked"`
	NowPlaying string                `json:"now_playing,omitempty"`
	Version    uint64                `json:"version"`
}

// QuestionResponse describes the current question. Key and Label are only
// revealed once the question has been answered correctly.
type QuestionResponse struct {
	Prompt   string `json:"prompt"`
	SoundURL string `json:"sound_url"`
	Key      string `json:"key,omitempty"`
	Label    string `json:"label,omitempty"`
}

// ChoiceResponse is one answer button. Feedback is "correct", "wrong" or empty.
type ChoiceResponse struct {
	Label    string `json:"label"`
	Feedback string `json:"feedback,omitempty"`
	Outline  string `json:"outline,omitempty"`
	Disabled bool   `json:"disabled"`
}

// ExampleWordResponse is an example word with its highlighted span.
type ExampleWordResponse struct {
	Word     string              `json:"word"`
	Segments []highlight.Segment `json:"segments"`
	Markup   string              `json:"markup"`
	SoundURL string              `json:"sound_url"`
}

type ScoreResponse struct {
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	Text    string `json:"text"`
}

// AnswerRequest is the body of POST /api/sessions/:id/answer.
// @Description Request body for submitting a choice
type AnswerRequest struct {
	Label string `json:"label"`
}

// AnswerResponse reports how the submission was evaluated.
type AnswerResponse struct {
	Result  string          `json:"result"`
	Session SessionResponse `json:"session"`
}

type ChoicesResponse struct {
	Choices []string `json:"choices"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
