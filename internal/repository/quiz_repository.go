package repository

import (
	"anatomy_edu_backend/internal/model"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	quizCacheKeyPrefix = "quiz:def:"
	quizCacheTTL       = 10 * time.Minute
)

type QuizRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewQuizRepository(db *gorm.DB, rdb *redis.Client) *QuizRepository {
	return &QuizRepository{DB: db, Redis: rdb}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.First(&q, "id = ?", id).Error
	return &q, err
}

// FindWithQuestions loads a quiz and its questions in canonical order.
// Definitions are read on every presentation and every grading pass, so
// they go through a redis read-through cache keyed by quiz id.
func (r *QuizRepository) FindWithQuestions(id string) (*model.Quiz, error) {
	ctx := context.Background()
	cacheKey := quizCacheKeyPrefix + id

	if r.Redis != nil {
		if val, err := r.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached model.Quiz
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var q model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc, created_at asc")
	}).First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	if r.Redis != nil {
		if data, err := json.Marshal(&q); err == nil {
			r.Redis.Set(ctx, cacheKey, data, quizCacheTTL)
		}
	}

	return &q, nil
}

func (r *QuizRepository) ListPublished(category string, page, limit int) ([]model.Quiz, int64, error) {
	var quizzes []model.Quiz
	var total int64

	query := r.DB.Model(&model.Quiz{}).Where("is_published = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) ListByCreator(creatorID uint, page, limit int) ([]model.Quiz, int64, error) {
	var quizzes []model.Quiz
	var total int64

	query := r.DB.Model(&model.Quiz{}).Where("creator_id = ?", creatorID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	if err := r.DB.Save(quiz).Error; err != nil {
		return err
	}
	r.invalidate(quiz.ID)
	return nil
}

// Delete removes the quiz and, via the FK constraint, its questions.
// Attempts reference the quiz by id only and are kept.
func (r *QuizRepository) Delete(id string) error {
	if err := r.DB.Select("Questions").Delete(&model.Quiz{UUIDBase: model.UUIDBase{ID: id}}).Error; err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

func (r *QuizRepository) FindQuestion(quizID, questionID string) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	err := r.DB.Where("quiz_id = ? AND id = ?", quizID, questionID).First(&q).Error
	return &q, err
}

// CreateQuestion inserts the question and recomputes the parent quiz's
// total_points in the same transaction, keeping the derived column in
// sync with the question set.
func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		return recomputeTotalPoints(tx, q.QuizID)
	})
	if err != nil {
		return err
	}
	r.invalidate(q.QuizID)
	return nil
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(q).Error; err != nil {
			return err
		}
		return recomputeTotalPoints(tx, q.QuizID)
	})
	if err != nil {
		return err
	}
	r.invalidate(q.QuizID)
	return nil
}

func (r *QuizRepository) DeleteQuestion(quizID, questionID string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("quiz_id = ? AND id = ?", quizID, questionID).Delete(&model.QuizQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return recomputeTotalPoints(tx, quizID)
	})
	if err != nil {
		return err
	}
	r.invalidate(quizID)
	return nil
}

func recomputeTotalPoints(tx *gorm.DB, quizID string) error {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&model.QuizQuestion{}).
		Select("COALESCE(SUM(points), 0)").
		Where("quiz_id = ? AND deleted_at IS NULL", quizID)
	return tx.Model(&model.Quiz{}).Where("id = ?", quizID).
		Update("total_points", sub).Error
}

func (r *QuizRepository) invalidate(quizID string) {
	if r.Redis != nil {
		r.Redis.Del(context.Background(), quizCacheKeyPrefix+quizID)
	}
}
