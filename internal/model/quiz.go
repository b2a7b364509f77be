package model

import (
	"encoding/json"
)

type QuestionType string

const (
	MultipleChoice      QuestionType = "multiple-choice"
	TrueFalse           QuestionType = "true-false"
	FillBlank           QuestionType = "fill-blank"
	OrganIdentification QuestionType = "organ-identification"
	DragDrop            QuestionType = "drag-drop"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, FillBlank, OrganIdentification, DragDrop:
		return true
	}
	return false
}

// ChoiceOption is one selectable option of a multiple-choice question.
// IsCorrect never leaves the server in student-facing responses.
type ChoiceOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragLabel is one draggable label of a drag-drop question.
type DragLabel struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	CorrectPosition Position `json:"correctPosition"`
}

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:100;index" json:"category"`
	ImageURL    string `gorm:"size:255" json:"imageUrl"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	// TotalPoints is derived from the questions and recomputed by every
	// authoring operation that changes them. It is never set directly.
	TotalPoints  float64 `gorm:"default:0" json:"totalPoints"`
	PassingScore int     `gorm:"default:60" json:"passingScore"` // percentage 0-100
	MaxAttempts  int     `gorm:"default:0" json:"maxAttempts"`   // 0 = unlimited
	TimeLimit    int     `gorm:"default:0" json:"timeLimit"`     // minutes, 0 = none

	ShuffleQuestions bool `gorm:"default:false" json:"shuffleQuestions"`
	ShuffleOptions   bool `gorm:"default:false" json:"shuffleOptions"`
	ShowAnswersAfter bool `gorm:"default:true" json:"showAnswersAfter"`
	IsPublished      bool `gorm:"default:false" json:"isPublished"`

	// Running aggregates, mutated only through StatsRepository increments.
	// AverageScore is derived on read, see AverageScore().
	AttemptCount int64   `gorm:"default:0" json:"attemptCount"`
	ScoreSum     float64 `gorm:"default:0" json:"-"`

	CreatorID uint `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// AverageScore derives the quiz's average percentage from the running
// sum and count so that concurrent submissions only ever race on two
// atomic increments, never on a stored average.
func (q *Quiz) AverageScore() float64 {
	if q.AttemptCount == 0 {
		return 0
	}
	return q.ScoreSum / float64(q.AttemptCount)
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	UUIDBase
	QuizID string       `gorm:"index;type:varchar(36)" json:"quizId"`
	Type   QuestionType `gorm:"size:50;not null" json:"type"`
	Prompt string       `gorm:"type:text;not null" json:"prompt"`

	// ImageURL backs organ-identification and drag-drop questions.
	ImageURL string `gorm:"size:255" json:"imageUrl,omitempty"`

	// Type-specific fields. Validate() rejects rows whose populated
	// fields don't match Type.
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"`       // []ChoiceOption
	CorrectAnswer string          `gorm:"type:text" json:"correctAnswer,omitempty"` // true-false, fill-blank
	HotspotID     string          `gorm:"size:100" json:"hotspotId,omitempty"`      // organ-identification
	Labels        json.RawMessage `gorm:"type:json" json:"labels,omitempty"`        // []DragLabel

	Points      float64 `gorm:"default:1" json:"points"`
	Explanation string  `gorm:"type:text" json:"explanation,omitempty"`
	Order       int     `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// DecodeOptions unmarshals the options column. A nil or empty column
// yields an empty slice, not an error.
func (q *QuizQuestion) DecodeOptions() ([]ChoiceOption, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var opts []ChoiceOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// DecodeLabels unmarshals the labels column.
func (q *QuizQuestion) DecodeLabels() ([]DragLabel, error) {
	if len(q.Labels) == 0 {
		return nil, nil
	}
	var labels []DragLabel
	if err := json.Unmarshal(q.Labels, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}
