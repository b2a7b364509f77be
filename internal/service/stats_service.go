package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// UserReader loads users for the statistics read surface.
type UserReader interface {
	FindByID(id uint) (*model.User, error)
}

// QuizHeadReader loads quiz rows without their questions.
type QuizHeadReader interface {
	FindByID(id string) (*model.Quiz, error)
}

// StatsService serves the derived aggregates. The write side lives in
// repository.StatsRepository and runs inside the grading transaction;
// averages here are computed from the atomically maintained sum and
// count columns.
type StatsService struct {
	Users   UserReader
	Quizzes QuizHeadReader
}

func NewStatsService(users UserReader, quizzes QuizHeadReader) *StatsService {
	return &StatsService{Users: users, Quizzes: quizzes}
}

type UserStats struct {
	QuizzesTaken int64   `json:"quizzesTaken"`
	AverageScore float64 `json:"averageScore"`
	TotalPoints  float64 `json:"totalPoints"`
}

func (s *StatsService) UserStats(userID uint) (*UserStats, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &UserStats{
		QuizzesTaken: user.QuizzesTaken,
		AverageScore: user.AverageScore(),
		TotalPoints:  user.TotalPoints,
	}, nil
}

type QuizStats struct {
	AttemptCount int64   `json:"attemptCount"`
	AverageScore float64 `json:"averageScore"`
}

func (s *StatsService) QuizStats(quizID string) (*QuizStats, error) {
	quiz, err := s.Quizzes.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return &QuizStats{
		AttemptCount: quiz.AttemptCount,
		AverageScore: quiz.AverageScore(),
	}, nil
}
