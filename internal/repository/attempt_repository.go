package repository

import (
	"anatomy_edu_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB    *gorm.DB
	Stats *StatsRepository
}

func NewAttemptRepository(db *gorm.DB, stats *StatsRepository) *AttemptRepository {
	return &AttemptRepository{DB: db, Stats: stats}
}

func (r *AttemptRepository) CountCompleted(userID uint, quizID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND is_completed = ?", userID, quizID, true).
		Count(&count).Error
	return count, err
}

// CreateGraded persists a completed attempt and applies its statistics
// delta in one transaction. A failed write rolls back both, so a
// computed score is never half-applied.
func (r *AttemptRepository) CreateGraded(attempt *model.QuizAttempt, delta model.StatsDelta) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		return r.Stats.RecordAttempt(tx, delta)
	})
}

func (r *AttemptRepository) FindByID(id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.First(&a, "id = ?", id).Error
	return &a, err
}

func (r *AttemptRepository) ListByUserAndQuiz(userID uint, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at desc").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByQuiz(quizID string, page, limit int) ([]model.QuizAttempt, int64, error) {
	var attempts []model.QuizAttempt
	var total int64

	query := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}
