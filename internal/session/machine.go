package session

import (
	"strings"

	"github.com/gokatarajesh/codequiz/internal/quiz"
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseFeedback   Phase = "feedback"
	PhaseCompleted  Phase = "completed"
	PhaseErrored    Phase = "errored"
)

// NoticeSelectFirst is raised when advancing without an answer.
const NoticeSelectFirst = "Please select an answer before proceeding."

// State is the full session state. Reduce never mutates its input.
type State struct {
	Phase    Phase
	Progress int
	Quiz     quiz.Set
	Index    int
	Answers  map[int]string
	Score    int
	Err      *quiz.Error
	Notice   string
}

// NewState returns the state of a session waiting for its quiz.
func NewState() State {
	return State{Phase: PhaseLoading, Answers: map[int]string{}}
}

// Action is an event fed to Reduce.
type Action interface{ action() }

type (
	// Progressed reports synthetic fetch progress.
	Progressed struct{ Percent int }
	// Loaded delivers the validated quiz.
	Loaded struct{ Quiz quiz.Set }
	// Failed ends the fetch attempt.
	Failed struct{ Err *quiz.Error }
	// SelectAnswer records a letter for the current question.
	SelectAnswer struct{ Option string }
	// Advance locks the current answer and shows feedback.
	Advance struct{}
	// FeedbackElapsed fires after the feedback display interval.
	FeedbackElapsed struct{}
	// NoticeExpired clears a transient notice.
	NoticeExpired struct{}
)

func (Progressed) action()      {}
func (Loaded) action()          {}
func (Failed) action()          {}
func (SelectAnswer) action()    {}
func (Advance) action()         {}
func (FeedbackElapsed) action() {}
func (NoticeExpired) action()   {}

// Effect asks the caller to do something after a transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectScheduleFeedback
	EffectScheduleNoticeClear
	EffectCompleted
)

// Reduce applies a to s. Rejected commands return s unchanged (apart from a
// notice) together with a session error.
func Reduce(s State, a Action) (State, Effect, error) {
	switch a := a.(type) {
	case Progressed:
		if s.Phase == PhaseLoading && a.Percent > s.Progress {
			s.Progress = a.Percent
		}
		return s, EffectNone, nil

	case Loaded:
		if s.Phase != PhaseLoading {
			return s, EffectNone, nil
		}
		if len(a.Quiz) == 0 {
			return failed(s, &quiz.Error{Kind: quiz.KindStructure, Message: "parsed data is empty", Err: quiz.ErrEmptyQuiz}), EffectNone, nil
		}
		return State{
			Phase:    PhaseInProgress,
			Progress: 100,
			Quiz:     a.Quiz,
			Answers:  map[int]string{},
		}, EffectNone, nil

	case Failed:
		if s.Phase != PhaseLoading {
			return s, EffectNone, nil
		}
		return failed(s, a.Err), EffectNone, nil

	case SelectAnswer:
		if s.Phase != PhaseInProgress {
			return s, EffectNone, nil
		}
		option := strings.ToUpper(strings.TrimSpace(a.Option))
		if !quiz.IsOptionKey(option) {
			return s, EffectNone, sessionError(quiz.ErrUnknownOption, "unknown option "+a.Option)
		}
		s.Answers = withAnswer(s.Answers, s.Index, option)
		s.Notice = ""
		return s, EffectNone, nil

	case Advance:
		if s.Phase != PhaseInProgress {
			return s, EffectNone, sessionError(quiz.ErrNotAnswerable, "no question is awaiting an answer")
		}
		chosen, ok := s.Answers[s.Index]
		if !ok {
			s.Notice = NoticeSelectFirst
			return s, EffectScheduleNoticeClear, sessionError(quiz.ErrNoAnswerSelected, NoticeSelectFirst)
		}
		if chosen == s.Quiz[s.Index].CorrectAnswer {
			s.Score++
		}
		s.Phase = PhaseFeedback
		s.Notice = ""
		return s, EffectScheduleFeedback, nil

	case FeedbackElapsed:
		if s.Phase != PhaseFeedback {
			return s, EffectNone, nil
		}
		if s.Index >= len(s.Quiz)-1 {
			s.Phase = PhaseCompleted
			return s, EffectCompleted, nil
		}
		s.Index++
		s.Phase = PhaseInProgress
		return s, EffectNone, nil

	case NoticeExpired:
		s.Notice = ""
		return s, EffectNone, nil
	}
	return s, EffectNone, nil
}

func failed(s State, err *quiz.Error) State {
	return State{
		Phase:    PhaseErrored,
		Progress: 100,
		Answers:  map[int]string{},
		Err:      err,
	}
}

func withAnswer(answers map[int]string, index int, option string) map[int]string {
	next := make(map[int]string, len(answers)+1)
	for k, v := range answers {
		next[k] = v
	}
	next[index] = option
	return next
}

func sessionError(err error, msg string) *quiz.Error {
	return &quiz.Error{Kind: quiz.KindSession, Message: msg, Err: err}
}
