package session

// ReviewItem is one row of the end-of-quiz review.
type ReviewItem struct {
	Index         int      `json:"index"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Chosen        string   `json:"chosen,omitempty"`
	Correct       bool     `json:"correct"`
	CorrectAnswer string   `json:"correct_answer"`
	CorrectOption string   `json:"correct_option"`
}

// Summary is the full-session breakdown exposed once a quiz is completed.
type Summary struct {
	Score         int          `json:"score"`
	Total         int          `json:"total"`
	Accuracy      float64      `json:"accuracy"`
	LongestStreak int          `json:"longest_streak"`
	Verdict       string       `json:"verdict"`
	Items         []ReviewItem `json:"items"`
}

// Review builds the summary for a completed state, nil otherwise.
func Review(s State) *Summary {
	if s.Phase != PhaseCompleted {
		return nil
	}

	items := make([]ReviewItem, 0, len(s.Quiz))
	streak, longest := 0, 0
	for i, q := range s.Quiz {
		chosen := s.Answers[i]
		correct := chosen != "" && chosen == q.CorrectAnswer
		if correct {
			streak++
			if streak > longest {
				longest = streak
			}
		} else {
			streak = 0
		}
		items = append(items, ReviewItem{
			Index:         i,
			Question:      q.Question,
			Options:       q.Options,
			Chosen:        chosen,
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			CorrectOption: q.CorrectOption(),
		})
	}

	total := len(s.Quiz)
	var accuracy float64
	if total > 0 {
		accuracy = float64(s.Score) / float64(total)
	}
	return &Summary{
		Score:         s.Score,
		Total:         total,
		Accuracy:      accuracy,
		LongestStreak: longest,
		Verdict:       Verdict(s.Score, total),
		Items:         items,
	}
}

// Verdict is the one-line message shown next to the final score.
func Verdict(score, total int) string {
	switch {
	case total > 0 && score == total:
		return "Perfect!"
	case float64(score) >= float64(total)*0.8:
		return "Great job!"
	case float64(score) >= float64(total)*0.5:
		return "Good effort!"
	default:
		return "Keep practicing!"
	}
}

// feedbackFor reports how the locked answer for the current question fared.
func feedbackFor(s State) *FeedbackView {
	if s.Phase != PhaseFeedback {
		return nil
	}
	q := s.Quiz[s.Index]
	return &FeedbackView{
		Correct:       s.Answers[s.Index] == q.CorrectAnswer,
		CorrectAnswer: q.CorrectAnswer,
		CorrectOption: q.CorrectOption(),
	}
}
