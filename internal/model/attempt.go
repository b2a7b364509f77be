package model

import (
	"encoding/json"
	"time"
)

// AttemptAnswer is one graded answer inside a QuizAttempt, including
// skipped questions (UserAnswer null, IsCorrect false).
type AttemptAnswer struct {
	QuestionID    string          `json:"questionId"`
	QuestionType  QuestionType    `json:"questionType"`
	UserAnswer    json.RawMessage `json:"userAnswer,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	IsCorrect     bool            `json:"isCorrect"`
	PointsEarned  float64         `json:"pointsEarned"`
	TimeTaken     int             `json:"timeTaken"` // seconds
}

// QuizAttempt is one graded submission. It references the quiz by id
// only; deleting a quiz keeps its historical attempts. Immutable once
// IsCompleted is set.
//
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	QuizID string `gorm:"index;type:varchar(36)" json:"quizId"`
	UserID uint   `gorm:"index;type:bigint unsigned" json:"userId"`

	Answers json.RawMessage `gorm:"type:json" json:"answers,omitempty"` // []AttemptAnswer

	Score            float64 `gorm:"default:0" json:"score"`
	TotalPoints      float64 `gorm:"default:0" json:"totalPoints"`
	Percentage       int     `gorm:"default:0" json:"percentage"`
	Passed           bool    `gorm:"default:false" json:"passed"`
	CorrectAnswers   int     `gorm:"default:0" json:"correctAnswers"`
	IncorrectAnswers int     `gorm:"default:0" json:"incorrectAnswers"`
	SkippedQuestions int     `gorm:"default:0" json:"skippedQuestions"`
	AttemptNumber    int     `gorm:"default:1" json:"attemptNumber"`

	TimeTaken   int        `gorm:"default:0" json:"timeTaken"` // seconds
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	IsCompleted bool       `gorm:"default:false;index" json:"isCompleted"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// DecodeAnswers unmarshals the answers column.
func (a *QuizAttempt) DecodeAnswers() ([]AttemptAnswer, error) {
	if len(a.Answers) == 0 {
		return nil, nil
	}
	var answers []AttemptAnswer
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
