package repository

import (
	"anatomy_edu_backend/internal/model"

	"gorm.io/gorm"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// RecordAttempt bumps the quiz-level and user-level running aggregates
// for one graded attempt. Both updates are single relative-increment
// statements, so concurrent submissions never lose counts to a
// read-modify-write race; averages are derived from sum/count on read.
// Runs on the caller's transaction handle.
func (r *StatsRepository) RecordAttempt(tx *gorm.DB, d model.StatsDelta) error {
	if err := tx.Model(&model.Quiz{}).Where("id = ?", d.QuizID).
		UpdateColumns(map[string]interface{}{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"score_sum":     gorm.Expr("score_sum + ?", d.Percentage),
		}).Error; err != nil {
		return err
	}

	return tx.Model(&model.User{}).Where("id = ?", d.UserID).
		UpdateColumns(map[string]interface{}{
			"quizzes_taken": gorm.Expr("quizzes_taken + 1"),
			"score_sum":     gorm.Expr("score_sum + ?", d.Percentage),
			"total_points":  gorm.Expr("total_points + ?", d.Score),
		}).Error
}
