package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/util"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gorm.io/gorm"
)

// memAttemptStore records attempts and applies stats deltas the way
// the real repository does inside its transaction.
type memAttemptStore struct {
	attempts []model.QuizAttempt

	quizAttempts int64
	quizScoreSum float64

	userQuizzesTaken int64
	userScoreSum     float64
	userTotalPoints  float64
}

func (s *memAttemptStore) CountCompleted(userID uint, quizID string) (int64, error) {
	var n int64
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (s *memAttemptStore) CreateGraded(attempt *model.QuizAttempt, delta model.StatsDelta) error {
	if attempt.ID == "" {
		attempt.ID = model.GenerateUUID()
	}
	s.attempts = append(s.attempts, *attempt)

	s.quizAttempts++
	s.quizScoreSum += delta.Percentage
	s.userQuizzesTaken++
	s.userScoreSum += delta.Percentage
	s.userTotalPoints += delta.Score
	return nil
}

func (s *memAttemptStore) FindByID(id string) (*model.QuizAttempt, error) {
	for i := range s.attempts {
		if s.attempts[i].ID == id {
			return &s.attempts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memAttemptStore) ListByUserAndQuiz(userID uint, quizID string) ([]model.QuizAttempt, error) {
	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAttemptStore) ListByQuiz(quizID string, page, limit int) ([]model.QuizAttempt, int64, error) {
	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func submission(t *testing.T, answers map[string]interface{}) SubmitQuizRequest {
	t.Helper()
	req := SubmitQuizRequest{TimeTaken: 120}
	for id, v := range answers {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		req.Answers = append(req.Answers, SubmittedAnswer{QuestionID: id, Answer: data})
	}
	return req
}

func TestSubmitQuizGrades(t *testing.T) {
	quiz := anatomyQuiz() // 3 questions, 10 points each, passing 60%
	store := &memAttemptStore{}
	svc := NewAttemptService(store, newMemQuizStore(quiz))

	// q1 correct, q2 wrong, q3 skipped
	result, err := svc.SubmitQuiz(42, "quiz-1", submission(t, map[string]interface{}{
		"q1": "b",
		"q2": "tricuspid valve",
	}))
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}

	if result.Score != 10 {
		t.Errorf("Score = %v, want 10", result.Score)
	}
	if result.TotalPoints != 30 {
		t.Errorf("TotalPoints = %v, want 30", result.TotalPoints)
	}
	if result.Percentage != 33 {
		t.Errorf("Percentage = %d, want 33", result.Percentage)
	}
	if result.Passed {
		t.Error("33 percent graded as passed with a 60 percent bar")
	}
	if result.CorrectAnswers != 1 || result.IncorrectAnswers != 1 || result.SkippedQuestions != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1",
			result.CorrectAnswers, result.IncorrectAnswers, result.SkippedQuestions)
	}
	if result.AttemptNumber != 1 {
		t.Errorf("AttemptNumber = %d, want 1", result.AttemptNumber)
	}

	if len(store.attempts) != 1 {
		t.Fatalf("stored %d attempts, want 1", len(store.attempts))
	}
	attempt := store.attempts[0]
	if !attempt.IsCompleted || attempt.CompletedAt == nil {
		t.Error("attempt not marked completed")
	}
	answers, err := attempt.DecodeAnswers()
	if err != nil {
		t.Fatal(err)
	}
	// graded in canonical stored order, skipped question included
	if len(answers) != 3 {
		t.Fatalf("stored %d answers, want 3", len(answers))
	}
	if answers[2].QuestionID != "q3" || answers[2].UserAnswer != nil || answers[2].IsCorrect {
		t.Errorf("skipped question stored as %+v", answers[2])
	}
	if string(answers[1].CorrectAnswer) != `"mitral valve"` {
		t.Errorf("stored correct answer = %s", answers[1].CorrectAnswer)
	}
}

func TestSubmitQuizTwoCorrectOneSkipped(t *testing.T) {
	quiz := anatomyQuiz()
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	result, err := svc.SubmitQuiz(42, "quiz-1", submission(t, map[string]interface{}{
		"q1": "b",
		"q2": "mitral valve",
	}))
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if result.Score != 20 {
		t.Errorf("Score = %v, want 20", result.Score)
	}
	if result.Percentage != 67 {
		t.Errorf("Percentage = %d, want 67 (20/30 rounded)", result.Percentage)
	}
	if result.SkippedQuestions != 1 {
		t.Errorf("SkippedQuestions = %d, want 1", result.SkippedQuestions)
	}
	if !result.Passed {
		t.Error("67 graded as failed with a 60 percent bar")
	}
}

func TestSubmitQuizPassing(t *testing.T) {
	quiz := anatomyQuiz()
	store := &memAttemptStore{}
	svc := NewAttemptService(store, newMemQuizStore(quiz))

	result, err := svc.SubmitQuiz(42, "quiz-1", submission(t, map[string]interface{}{
		"q1": "b",
		"q2": " Mitral Valve ",
		"q3": map[string]model.Position{"aorta": {X: 15, Y: 25}},
	}))
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if result.Score != 30 || result.Percentage != 100 || !result.Passed {
		t.Errorf("perfect submission graded %+v", result)
	}
}

func TestSubmitQuizShowAnswersAfter(t *testing.T) {
	quiz := anatomyQuiz()
	quiz.ShowAnswersAfter = true
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	result, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{"q1": "a"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Answers) != 3 {
		t.Fatalf("got %d graded answers, want 3", len(result.Answers))
	}
	if string(result.Answers[0].CorrectAnswer) != `"b"` {
		t.Errorf("CorrectAnswer = %s, want \"b\"", result.Answers[0].CorrectAnswer)
	}

	quiz.ShowAnswersAfter = false
	result, err = svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{"q1": "a"}))
	if err != nil {
		t.Fatal(err)
	}
	if result.Answers != nil {
		t.Errorf("answers returned despite showAnswersAfter=false: %+v", result.Answers)
	}
}

func TestSubmitQuizDuplicateAnswersFirstWins(t *testing.T) {
	quiz := anatomyQuiz()
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	req := SubmitQuizRequest{
		Answers: []SubmittedAnswer{
			{QuestionID: "q1", Answer: json.RawMessage(`"b"`)},
			{QuestionID: "q1", Answer: json.RawMessage(`"a"`)},
		},
	}
	result, err := svc.SubmitQuiz(1, "quiz-1", req)
	if err != nil {
		t.Fatal(err)
	}
	if result.CorrectAnswers != 1 {
		t.Errorf("first submitted answer not used: %+v", result)
	}
}

func TestSubmitQuizIgnoresUnknownQuestionIDs(t *testing.T) {
	quiz := anatomyQuiz()
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	result, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{
		"q1":       "b",
		"phantom":  "b",
		"phantom2": true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.CorrectAnswers != 1 || result.SkippedQuestions != 2 {
		t.Errorf("unknown question ids affected grading: %+v", result)
	}
}

func TestSubmitQuizAttemptCap(t *testing.T) {
	quiz := anatomyQuiz()
	quiz.MaxAttempts = 1
	store := &memAttemptStore{}
	svc := NewAttemptService(store, newMemQuizStore(quiz))

	if _, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{"q1": "b"})); err != nil {
		t.Fatalf("first attempt rejected: %v", err)
	}
	_, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{"q1": "b"}))
	if !errors.Is(err, util.ErrAttemptLimitExceeded) {
		t.Errorf("second attempt err = %v, want ErrAttemptLimitExceeded", err)
	}

	// a different user still has their own allowance
	if _, err := svc.SubmitQuiz(2, "quiz-1", submission(t, map[string]interface{}{"q1": "b"})); err != nil {
		t.Errorf("other user's first attempt rejected: %v", err)
	}
}

func TestSubmitQuizUnpublished(t *testing.T) {
	quiz := anatomyQuiz()
	quiz.IsPublished = false
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	if _, err := svc.SubmitQuiz(1, "quiz-1", SubmitQuizRequest{}); !errors.Is(err, util.ErrQuizNotPublished) {
		t.Errorf("err = %v, want ErrQuizNotPublished", err)
	}
}

func TestSubmitQuizZeroTotalPoints(t *testing.T) {
	quiz := &model.Quiz{IsPublished: true, PassingScore: 60}
	quiz.ID = "empty"
	svc := NewAttemptService(&memAttemptStore{}, newMemQuizStore(quiz))

	result, err := svc.SubmitQuiz(1, "empty", SubmitQuizRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Percentage != 0 || result.Passed {
		t.Errorf("empty quiz graded %+v, want zero percent and not passed", result)
	}
}

func TestSubmitQuizUpdatesRunningStats(t *testing.T) {
	quiz := anatomyQuiz()
	store := &memAttemptStore{}
	svc := NewAttemptService(store, newMemQuizStore(quiz))

	// 100%, then 33%
	if _, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{
		"q1": "b",
		"q2": "mitral valve",
		"q3": map[string]model.Position{"aorta": {X: 10, Y: 20}},
	})); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitQuiz(1, "quiz-1", submission(t, map[string]interface{}{"q1": "b"})); err != nil {
		t.Fatal(err)
	}

	if store.quizAttempts != 2 {
		t.Errorf("quiz attempt count = %d, want 2", store.quizAttempts)
	}
	avg := store.quizScoreSum / float64(store.quizAttempts)
	if math.Abs(avg-66.5) > 0.001 {
		t.Errorf("quiz average = %v, want 66.5", avg)
	}
	if store.userTotalPoints != 40 {
		t.Errorf("user total points = %v, want 40", store.userTotalPoints)
	}
	if store.userQuizzesTaken != 2 {
		t.Errorf("user quizzes taken = %d, want 2", store.userQuizzesTaken)
	}
}

func TestGetAttemptOwnership(t *testing.T) {
	store := &memAttemptStore{}
	attempt := &model.QuizAttempt{UserID: 5, IsCompleted: true}
	attempt.ID = "att-1"
	store.attempts = append(store.attempts, *attempt)

	svc := NewAttemptService(store, newMemQuizStore())

	if _, err := svc.GetAttempt("att-1", 5, model.Student); err != nil {
		t.Errorf("owner denied: %v", err)
	}
	if _, err := svc.GetAttempt("att-1", 6, model.Student); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("other student err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.GetAttempt("att-1", 6, model.Teacher); err != nil {
		t.Errorf("teacher denied: %v", err)
	}
	if _, err := svc.GetAttempt("missing", 5, model.Student); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("missing attempt err = %v, want ErrAttemptNotFound", err)
	}
}
