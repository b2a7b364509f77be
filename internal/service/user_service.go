package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/repository"
	"anatomy_edu_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// Profile is the user view returned to clients, stats included.
type Profile struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         model.UserRole `json:"role"`
	Avatar       string         `json:"avatar,omitempty"`
	QuizzesTaken int64          `json:"quizzesTaken"`
	AverageScore float64        `json:"averageScore"`
	TotalPoints  float64        `json:"totalPoints"`
}

func (s *UserService) GetProfile(userID uint) (*Profile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	return &Profile{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Avatar:       user.Avatar,
		QuizzesTaken: user.QuizzesTaken,
		AverageScore: user.AverageScore(),
		TotalPoints:  user.TotalPoints,
	}, nil
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*Profile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}
