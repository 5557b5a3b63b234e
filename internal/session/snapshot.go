package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gokatarajesh/codequiz/internal/quiz"
)

// Snapshot is the read-only view of a session sent to clients.
type Snapshot struct {
	ID              uuid.UUID      `json:"session_id"`
	Title           string         `json:"title"`
	Phase           Phase          `json:"phase"`
	Loading         bool           `json:"loading"`
	LoadingText     string         `json:"loading_text,omitempty"`
	Progress        int            `json:"progress"`
	Error           *ErrorView     `json:"error,omitempty"`
	Notice          string         `json:"notice,omitempty"`
	Total           int            `json:"total"`
	CurrentIndex    int            `json:"current_index"`
	Counter         string         `json:"counter,omitempty"`
	CurrentQuestion *QuestionView  `json:"current_question,omitempty"`
	Answers         map[int]string `json:"answers"`
	Score           int            `json:"score"`
	Complete        bool           `json:"complete"`
	Feedback        *FeedbackView  `json:"feedback,omitempty"`
	Review          *Summary       `json:"review,omitempty"`
}

type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
}

type FeedbackView struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	CorrectOption string `json:"correct_option"`
}

type ErrorView struct {
	Kind    quiz.Kind `json:"kind"`
	Message string    `json:"message"`
}

func newSnapshot(id uuid.UUID, cfg quiz.Config, s State) Snapshot {
	snap := Snapshot{
		ID:           id,
		Title:        cfg.Title(),
		Phase:        s.Phase,
		Loading:      s.Phase == PhaseLoading,
		Progress:     s.Progress,
		Notice:       s.Notice,
		Total:        len(s.Quiz),
		CurrentIndex: s.Index,
		Answers:      make(map[int]string, len(s.Answers)),
		Score:        s.Score,
		Complete:     s.Phase == PhaseCompleted,
		Feedback:     feedbackFor(s),
		Review:       Review(s),
	}
	for k, v := range s.Answers {
		snap.Answers[k] = v
	}
	if snap.Loading {
		snap.LoadingText = cfg.LoadingText()
	}
	if s.Err != nil {
		snap.Error = &ErrorView{Kind: s.Err.Kind, Message: s.Err.UserMessage()}
	}
	if s.Phase == PhaseInProgress || s.Phase == PhaseFeedback {
		q := s.Quiz[s.Index]
		snap.Counter = fmt.Sprintf("Question %d of %d", s.Index+1, len(s.Quiz))
		snap.CurrentQuestion = &QuestionView{
			Question: q.Question,
			Options:  q.Options,
			Selected: s.Answers[s.Index],
		}
	}
	return snap
}
