package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/util"
	"anatomy_edu_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// AttemptStore is the persistence surface the grader needs.
// Implemented by repository.AttemptRepository.
type AttemptStore interface {
	CountCompleted(userID uint, quizID string) (int64, error)
	CreateGraded(attempt *model.QuizAttempt, delta model.StatsDelta) error
	FindByID(id string) (*model.QuizAttempt, error)
	ListByUserAndQuiz(userID uint, quizID string) ([]model.QuizAttempt, error)
	ListByQuiz(quizID string, page, limit int) ([]model.QuizAttempt, int64, error)
}

// QuizReader loads full quiz definitions for grading.
type QuizReader interface {
	FindWithQuestions(id string) (*model.Quiz, error)
}

type AttemptService struct {
	Attempts AttemptStore
	Quizzes  QuizReader
}

func NewAttemptService(attempts AttemptStore, quizzes QuizReader) *AttemptService {
	return &AttemptService{Attempts: attempts, Quizzes: quizzes}
}

type SubmittedAnswer struct {
	QuestionID string          `json:"questionId" binding:"required"`
	Answer     json.RawMessage `json:"answer"`
	TimeTaken  int             `json:"timeTaken"` // seconds
}

type SubmitQuizRequest struct {
	Answers   []SubmittedAnswer `json:"answers"`
	StartedAt time.Time         `json:"startedAt"`
	TimeTaken int               `json:"timeTaken"` // seconds
}

// GradedAnswer is the response-side view of one graded question.
// CorrectAnswer and Explanation are present only when the quiz has
// showAnswersAfter set; the persisted attempt always stores them.
type GradedAnswer struct {
	QuestionID    string             `json:"questionId"`
	QuestionType  model.QuestionType `json:"questionType"`
	IsCorrect     bool               `json:"isCorrect"`
	PointsEarned  float64            `json:"pointsEarned"`
	Skipped       bool               `json:"skipped"`
	CorrectAnswer json.RawMessage    `json:"correctAnswer,omitempty"`
	Explanation   string             `json:"explanation,omitempty"`
}

type SubmitQuizResult struct {
	AttemptID        string         `json:"attemptId"`
	Score            float64        `json:"score"`
	TotalPoints      float64        `json:"totalPoints"`
	Percentage       int            `json:"percentage"`
	Passed           bool           `json:"passed"`
	CorrectAnswers   int            `json:"correctAnswers"`
	IncorrectAnswers int            `json:"incorrectAnswers"`
	SkippedQuestions int            `json:"skippedQuestions"`
	AttemptNumber    int            `json:"attemptNumber"`
	TimeTaken        int            `json:"timeTaken"`
	Answers          []GradedAnswer `json:"answers,omitempty"`
}

// SubmitQuiz grades a submission against the canonical stored question
// order, persists the attempt together with the statistics update in
// one transaction, and returns the summary. The attempt cap is
// re-checked here inside the same request so a submission racing past
// a presentation-time check still cannot exceed the limit by more than
// the transaction window.
func (s *AttemptService) SubmitQuiz(userID uint, quizID string, req SubmitQuizRequest) (*SubmitQuizResult, error) {
	start := time.Now()

	quiz, err := s.Quizzes.FindWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	priorAttempts, err := s.Attempts.CountCompleted(userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.MaxAttempts > 0 && priorAttempts >= int64(quiz.MaxAttempts) {
		return nil, util.ErrAttemptLimitExceeded
	}

	// First submission for a question wins; duplicates are ignored.
	submitted := make(map[string]SubmittedAnswer, len(req.Answers))
	for _, a := range req.Answers {
		if _, ok := submitted[a.QuestionID]; !ok {
			submitted[a.QuestionID] = a
		}
	}

	var (
		score     float64
		correct   int
		incorrect int
		skipped   int
	)
	stored := make([]model.AttemptAnswer, 0, len(quiz.Questions))
	graded := make([]GradedAnswer, 0, len(quiz.Questions))

	for i := range quiz.Questions {
		q := &quiz.Questions[i]

		entry := model.AttemptAnswer{
			QuestionID:    q.ID,
			QuestionType:  q.Type,
			CorrectAnswer: correctAnswerJSON(q),
		}
		view := GradedAnswer{
			QuestionID:   q.ID,
			QuestionType: q.Type,
		}

		sub, answered := submitted[q.ID]
		if !answered {
			skipped++
			view.Skipped = true
		} else {
			entry.UserAnswer = sub.Answer
			entry.TimeTaken = sub.TimeTaken

			res := Evaluate(q, sub.Answer)
			entry.IsCorrect = res.IsCorrect
			entry.PointsEarned = res.PointsEarned
			view.IsCorrect = res.IsCorrect
			view.PointsEarned = res.PointsEarned

			score += res.PointsEarned
			if res.IsCorrect {
				correct++
			} else {
				incorrect++
			}
		}

		if quiz.ShowAnswersAfter {
			view.CorrectAnswer = entry.CorrectAnswer
			view.Explanation = q.Explanation
		}

		stored = append(stored, entry)
		graded = append(graded, view)
	}

	percentage := 0
	if quiz.TotalPoints > 0 {
		percentage = int(math.Round(score / quiz.TotalPoints * 100))
	}
	passed := percentage >= quiz.PassingScore

	answersJSON, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode attempt answers: %w", err)
	}

	now := time.Now()
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	attempt := &model.QuizAttempt{
		QuizID:           quizID,
		UserID:           userID,
		Answers:          answersJSON,
		Score:            score,
		TotalPoints:      quiz.TotalPoints,
		Percentage:       percentage,
		Passed:           passed,
		CorrectAnswers:   correct,
		IncorrectAnswers: incorrect,
		SkippedQuestions: skipped,
		AttemptNumber:    int(priorAttempts) + 1,
		TimeTaken:        req.TimeTaken,
		StartedAt:        startedAt,
		CompletedAt:      &now,
		IsCompleted:      true,
	}

	delta := model.StatsDelta{
		QuizID:     quizID,
		UserID:     userID,
		Percentage: float64(percentage),
		Score:      score,
	}

	// The score is already computed; a failed write must surface so the
	// client retries the whole submission instead of losing it.
	if err := s.Attempts.CreateGraded(attempt, delta); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	monitoring.ObserveGrading(passed, time.Since(start))

	result := &SubmitQuizResult{
		AttemptID:        attempt.ID,
		Score:            score,
		TotalPoints:      quiz.TotalPoints,
		Percentage:       percentage,
		Passed:           passed,
		CorrectAnswers:   correct,
		IncorrectAnswers: incorrect,
		SkippedQuestions: skipped,
		AttemptNumber:    attempt.AttemptNumber,
		TimeTaken:        req.TimeTaken,
	}
	if quiz.ShowAnswersAfter {
		result.Answers = graded
	}
	return result, nil
}

func (s *AttemptService) ListMyAttempts(userID uint, quizID string) ([]model.QuizAttempt, error) {
	return s.Attempts.ListByUserAndQuiz(userID, quizID)
}

func (s *AttemptService) ListQuizAttempts(quizID string, page, limit int) ([]model.QuizAttempt, int64, error) {
	return s.Attempts.ListByQuiz(quizID, page, limit)
}

// GetAttempt returns one attempt. Students can only read their own;
// teachers and admins can read any.
func (s *AttemptService) GetAttempt(id string, requesterID uint, role model.UserRole) (*model.QuizAttempt, error) {
	attempt, err := s.Attempts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != requesterID && role != model.Teacher && role != model.Admin {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}
