package service

import (
	"fmt"

	"vowel-quiz/internal/dto"
	"vowel-quiz/internal/highlight"
	"vowel-quiz/internal/quiz"
)

const (
	// Prompt is shown above the play button.
	Prompt = "Listen to the vowel sound and choose its name"

	FeedbackCorrect = "correct"
	FeedbackWrong   = "wrong"

	OutlineCorrect = "2px solid #2ecc71"
	OutlineWrong   = "2px solid #ff4d4f"
)

// BuildView renders a snapshot into the presentation model. A correct pick
// outranks a wrong one for the same label.
func BuildView(sessionID string, snap quiz.Snapshot, nowPlaying string) dto.SessionResponse {
	view := dto.SessionResponse{
		SessionID: sessionID,
		Question: dto.QuestionResponse{
			Prompt:   Prompt,
			SoundURL: fmt.Sprintf("/api/sessions/%s/sound", sessionID),
		},
		Choices:  make([]dto.ChoiceResponse, 0, len(snap.Choices)),
		Examples: make([]dto.ExampleWordResponse, 0, len(snap.Question.Examples)),
		Score: dto.ScoreResponse{
			Correct: snap.Score.Correct,
			Total:   snap.Score.Total,
			Text:    fmt.Sprintf("Score: %d / %d", snap.Score.Correct, snap.Score.Total),
		},
		State:      snap.State.String(),
		Locked:     snap.Locked(),
		NowPlaying: nowPlaying,
		Version:    snap.Version,
	}

	if snap.Locked() {
		view.Question.Key = snap.Question.Key
		view.Question.Label = snap.Question.Label
	}

	for _, c := range snap.Choices {
		choice := dto.ChoiceResponse{Label: c.Label, Disabled: snap.Locked()}
		switch {
		case snap.IsCorrect(c.Label):
			choice.Feedback = FeedbackCorrect
			choice.Outline = OutlineCorrect
		case snap.IsWrong(c.Label):
			choice.Feedback = FeedbackWrong
			choice.Outline = OutlineWrong
		}
		view.Choices = append(view.Choices, choice)
	}

	for _, ex := range snap.Question.Examples {
		segs := highlight.HighlightFirst(ex.Word, ex.Highlights)
		view.Examples = append(view.Examples, dto.ExampleWordResponse{
			Word:     ex.Word,
			Segments: segs,
			Markup:   highlight.Markup(segs),
			SoundURL: fmt.Sprintf("/api/words/%s/sound", ex.Word),
		})
	}

	return view
}
