package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/util"
	"errors"
	"testing"

	"gorm.io/gorm"
)

type memUserReader struct {
	users map[uint]*model.User
}

func (r memUserReader) FindByID(id uint) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type memQuizHeadReader struct {
	quizzes map[string]*model.Quiz
}

func (r memQuizHeadReader) FindByID(id string) (*model.Quiz, error) {
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func TestUserStatsDerivedAverage(t *testing.T) {
	user := &model.User{QuizzesTaken: 4, ScoreSum: 310, TotalPoints: 120}
	user.ID = 9

	svc := NewStatsService(memUserReader{users: map[uint]*model.User{9: user}}, memQuizHeadReader{})

	stats, err := svc.UserStats(9)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.AverageScore != 77.5 {
		t.Errorf("AverageScore = %v, want 77.5", stats.AverageScore)
	}
	if stats.QuizzesTaken != 4 || stats.TotalPoints != 120 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := svc.UserStats(404); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("missing user err = %v, want ErrUserNotFound", err)
	}
}

func TestQuizStatsZeroAttempts(t *testing.T) {
	quiz := &model.Quiz{}
	quiz.ID = "quiz-1"

	svc := NewStatsService(memUserReader{}, memQuizHeadReader{quizzes: map[string]*model.Quiz{"quiz-1": quiz}})

	stats, err := svc.QuizStats("quiz-1")
	if err != nil {
		t.Fatalf("QuizStats: %v", err)
	}
	if stats.AverageScore != 0 || stats.AttemptCount != 0 {
		t.Errorf("fresh quiz stats = %+v, want zeroes", stats)
	}

	quiz.AttemptCount = 3
	quiz.ScoreSum = 240
	stats, err = svc.QuizStats("quiz-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.AverageScore != 80 {
		t.Errorf("AverageScore = %v, want 80", stats.AverageScore)
	}

	if _, err := svc.QuizStats("missing"); !errors.Is(err, util.ErrQuizNotFound) {
		t.Errorf("missing quiz err = %v, want ErrQuizNotFound", err)
	}
}
