package quiz

import "vowel-quiz/internal/domain"

// Score is the running tally. Total counts every evaluated submission.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Incorrect is Total minus Correct.
func (s Score) Incorrect() int {
	return s.Total - s.Correct
}

// Snapshot is an immutable copy of a machine's state after a transition.
type Snapshot struct {
	Question    domain.VowelItem
	State       State
	Score       Score
	WrongPicks  []string // in order of first selection
	CorrectPick string
	Choices     []domain.ChoiceOption
	Version     uint64
}

// Locked reports whether input is currently refused.
func (s Snapshot) Locked() bool {
	return s.State == Locked
}

// IsWrong reports whether label was picked wrongly for this question.
func (s Snapshot) IsWrong(label string) bool {
	return contains(s.WrongPicks, label)
}

// IsCorrect reports whether label is the accepted correct pick.
func (s Snapshot) IsCorrect(label string) bool {
	return s.CorrectPick != "" && s.CorrectPick == label
}
