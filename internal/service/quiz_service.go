package service

import (
	"anatomy_edu_backend/internal/model"
	"anatomy_edu_backend/internal/util"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"gorm.io/gorm"
)

// QuizStore is the persistence surface the quiz service needs.
// Implemented by repository.QuizRepository.
type QuizStore interface {
	Create(quiz *model.Quiz) error
	FindByID(id string) (*model.Quiz, error)
	FindWithQuestions(id string) (*model.Quiz, error)
	ListPublished(category string, page, limit int) ([]model.Quiz, int64, error)
	ListByCreator(creatorID uint, page, limit int) ([]model.Quiz, int64, error)
	Update(quiz *model.Quiz) error
	Delete(id string) error
	FindQuestion(quizID, questionID string) (*model.QuizQuestion, error)
	CreateQuestion(q *model.QuizQuestion) error
	UpdateQuestion(q *model.QuizQuestion) error
	DeleteQuestion(quizID, questionID string) error
}

// AttemptCounter exposes the prior-attempt count the assembler needs
// for the max-attempts policy. Implemented by repository.AttemptRepository.
type AttemptCounter interface {
	CountCompleted(userID uint, quizID string) (int64, error)
}

type QuizService struct {
	Quizzes  QuizStore
	Attempts AttemptCounter
}

func NewQuizService(quizzes QuizStore, attempts AttemptCounter) *QuizService {
	return &QuizService{Quizzes: quizzes, Attempts: attempts}
}

// --- Presentation (student-facing) ---

// PresentedOption is a redacted option: no IsCorrect.
type PresentedOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PresentedLabel is a redacted drag label: no CorrectPosition.
type PresentedLabel struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type PresentedQuestion struct {
	ID       string             `json:"id"`
	Type     model.QuestionType `json:"type"`
	Prompt   string             `json:"prompt"`
	ImageURL string             `json:"imageUrl,omitempty"`
	Options  []PresentedOption  `json:"options,omitempty"`
	Labels   []PresentedLabel   `json:"labels,omitempty"`
	Points   float64            `json:"points"`
}

type QuizPresentation struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Category         string              `json:"category,omitempty"`
	ImageURL         string              `json:"imageUrl,omitempty"`
	TotalPoints      float64             `json:"totalPoints"`
	PassingScore     int                 `json:"passingScore"`
	MaxAttempts      int                 `json:"maxAttempts"`
	TimeLimit        int                 `json:"timeLimit"`
	ShowAnswersAfter bool                `json:"showAnswersAfter"`
	UserAttemptCount int64               `json:"userAttemptCount"`
	Questions        []PresentedQuestion `json:"questions"`
}

// PresentQuiz builds the student-facing view of a published quiz:
// answer key material stripped, question/option order shuffled on
// copies when the quiz asks for it, attempt-limit policy enforced
// before any content is released. The stored definition is never
// touched; repeated calls may return different orders.
func (s *QuizService) PresentQuiz(userID uint, quizID string) (*QuizPresentation, error) {
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

	attemptCount, err := s.Attempts.CountCompleted(userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.MaxAttempts > 0 && attemptCount >= int64(quiz.MaxAttempts) {
		return nil, util.ErrAttemptLimitExceeded
	}

	questions := make([]PresentedQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		pq := PresentedQuestion{
			ID:       q.ID,
			Type:     q.Type,
			Prompt:   q.Prompt,
			ImageURL: q.ImageURL,
			Points:   q.Points,
		}

		if q.Type == model.MultipleChoice {
			opts, err := q.DecodeOptions()
			if err != nil {
				return nil, fmt.Errorf("quiz %s question %s: %w", quizID, q.ID, err)
			}
			pq.Options = make([]PresentedOption, len(opts))
			for i, o := range opts {
				pq.Options[i] = PresentedOption{ID: o.ID, Text: o.Text}
			}
			if quiz.ShuffleOptions {
				rand.Shuffle(len(pq.Options), func(i, j int) {
					pq.Options[i], pq.Options[j] = pq.Options[j], pq.Options[i]
				})
			}
		}

		if q.Type == model.DragDrop {
			labels, err := q.DecodeLabels()
			if err != nil {
				return nil, fmt.Errorf("quiz %s question %s: %w", quizID, q.ID, err)
			}
			pq.Labels = make([]PresentedLabel, len(labels))
			for i, l := range labels {
				pq.Labels[i] = PresentedLabel{ID: l.ID, Text: l.Text}
			}
		}

		questions = append(questions, pq)
	}

	if quiz.ShuffleQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	return &QuizPresentation{
		ID:               quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		Category:         quiz.Category,
		ImageURL:         quiz.ImageURL,
		TotalPoints:      quiz.TotalPoints,
		PassingScore:     quiz.PassingScore,
		MaxAttempts:      quiz.MaxAttempts,
		TimeLimit:        quiz.TimeLimit,
		ShowAnswersAfter: quiz.ShowAnswersAfter,
		UserAttemptCount: attemptCount,
		Questions:        questions,
	}, nil
}

// QuizSummary is the catalog view of a quiz.
type QuizSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      string  `json:"category,omitempty"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	TotalPoints   float64 `json:"totalPoints"`
	PassingScore  int     `json:"passingScore"`
	MaxAttempts   int     `json:"maxAttempts"`
	TimeLimit     int     `json:"timeLimit"`
	AttemptCount  int64   `json:"attemptCount"`
	AverageScore  float64 `json:"averageScore"`
	QuestionCount int     `json:"questionCount,omitempty"`
}

func (s *QuizService) ListPublished(category string, page, limit int) ([]QuizSummary, int64, error) {
	quizzes, total, err := s.Quizzes.ListPublished(category, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return summarize(quizzes), total, nil
}

func (s *QuizService) ListByCreator(creatorID uint, page, limit int) ([]QuizSummary, int64, error) {
	quizzes, total, err := s.Quizzes.ListByCreator(creatorID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return summarize(quizzes), total, nil
}

func summarize(quizzes []model.Quiz) []QuizSummary {
	out := make([]QuizSummary, len(quizzes))
	for i := range quizzes {
		q := &quizzes[i]
		out[i] = QuizSummary{
			ID:           q.ID,
			Title:        q.Title,
			Description:  q.Description,
			Category:     q.Category,
			ImageURL:     q.ImageURL,
			TotalPoints:  q.TotalPoints,
			PassingScore: q.PassingScore,
			MaxAttempts:  q.MaxAttempts,
			TimeLimit:    q.TimeLimit,
			AttemptCount: q.AttemptCount,
			AverageScore: q.AverageScore(),
		}
	}
	return out
}

// --- Authoring (teacher-facing) ---

type QuizRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	ImageURL         string `json:"imageUrl"`
	PassingScore     int    `json:"passingScore"`
	MaxAttempts      int    `json:"maxAttempts"`
	TimeLimit        int    `json:"timeLimit"`
	ShuffleQuestions bool   `json:"shuffleQuestions"`
	ShuffleOptions   bool   `json:"shuffleOptions"`
	ShowAnswersAfter bool   `json:"showAnswersAfter"`
	IsPublished      bool   `json:"isPublished"`
}

func (s *QuizService) CreateQuiz(creatorID uint, req QuizRequest) (*model.Quiz, error) {
	if req.PassingScore < 0 || req.PassingScore > 100 {
		return nil, fmt.Errorf("passing score must be between 0 and 100")
	}

	quiz := &model.Quiz{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		ImageURL:         req.ImageURL,
		PassingScore:     req.PassingScore,
		MaxAttempts:      req.MaxAttempts,
		TimeLimit:        req.TimeLimit,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleOptions:   req.ShuffleOptions,
		ShowAnswersAfter: req.ShowAnswersAfter,
		IsPublished:      req.IsPublished,
		CreatorID:        creatorID,
	}
	if err := s.Quizzes.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetQuiz(id string) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(id string, req QuizRequest) (*model.Quiz, error) {
	if req.PassingScore < 0 || req.PassingScore > 100 {
		return nil, fmt.Errorf("passing score must be between 0 and 100")
	}

	quiz, err := s.Quizzes.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.Category = req.Category
	quiz.ImageURL = req.ImageURL
	quiz.PassingScore = req.PassingScore
	quiz.MaxAttempts = req.MaxAttempts
	quiz.TimeLimit = req.TimeLimit
	quiz.ShuffleQuestions = req.ShuffleQuestions
	quiz.ShuffleOptions = req.ShuffleOptions
	quiz.ShowAnswersAfter = req.ShowAnswersAfter
	quiz.IsPublished = req.IsPublished

	if err := s.Quizzes.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz and its questions. Attempts are kept as
// historical records.
func (s *QuizService) DeleteQuiz(id string) error {
	if _, err := s.Quizzes.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}
	return s.Quizzes.Delete(id)
}

type QuestionRequest struct {
	Type          model.QuestionType   `json:"type" binding:"required"`
	Prompt        string               `json:"prompt" binding:"required"`
	ImageURL      string               `json:"imageUrl"`
	Options       []model.ChoiceOption `json:"options"`
	CorrectAnswer string               `json:"correctAnswer"`
	HotspotID     string               `json:"hotspotId"`
	Labels        []model.DragLabel    `json:"labels"`
	Points        float64              `json:"points"`
	Explanation   string               `json:"explanation"`
	Order         int                  `json:"order"`
}

// validate rejects question payloads whose fields don't match their
// type tag, so a stored row always decodes to exactly one answer key.
func (req *QuestionRequest) validate() error {
	if !req.Type.Valid() {
		return fmt.Errorf("unknown question type %q", req.Type)
	}
	if req.Points <= 0 {
		return fmt.Errorf("points must be positive")
	}

	switch req.Type {
	case model.MultipleChoice:
		if len(req.Options) < 2 {
			return fmt.Errorf("multiple-choice question needs at least 2 options")
		}
		correct := 0
		seen := make(map[string]bool, len(req.Options))
		for _, o := range req.Options {
			if o.ID == "" {
				return fmt.Errorf("option id must not be empty")
			}
			if seen[o.ID] {
				return fmt.Errorf("duplicate option id %q", o.ID)
			}
			seen[o.ID] = true
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("multiple-choice question needs exactly one correct option, got %d", correct)
		}
		if req.CorrectAnswer != "" || req.HotspotID != "" || len(req.Labels) > 0 {
			return fmt.Errorf("multiple-choice question carries fields of another type")
		}
	case model.TrueFalse:
		if req.CorrectAnswer != "true" && req.CorrectAnswer != "false" {
			return fmt.Errorf("true-false answer must be \"true\" or \"false\"")
		}
		if len(req.Options) > 0 || req.HotspotID != "" || len(req.Labels) > 0 {
			return fmt.Errorf("true-false question carries fields of another type")
		}
	case model.FillBlank:
		if req.CorrectAnswer == "" {
			return fmt.Errorf("fill-blank question needs a correct answer")
		}
		if len(req.Options) > 0 || req.HotspotID != "" || len(req.Labels) > 0 {
			return fmt.Errorf("fill-blank question carries fields of another type")
		}
	case model.OrganIdentification:
		if req.HotspotID == "" {
			return fmt.Errorf("organ-identification question needs a hotspot id")
		}
		if len(req.Options) > 0 || req.CorrectAnswer != "" || len(req.Labels) > 0 {
			return fmt.Errorf("organ-identification question carries fields of another type")
		}
	case model.DragDrop:
		if len(req.Labels) == 0 {
			return fmt.Errorf("drag-drop question needs at least one label")
		}
		seen := make(map[string]bool, len(req.Labels))
		for _, l := range req.Labels {
			if l.ID == "" {
				return fmt.Errorf("label id must not be empty")
			}
			if seen[l.ID] {
				return fmt.Errorf("duplicate label id %q", l.ID)
			}
			seen[l.ID] = true
		}
		if len(req.Options) > 0 || req.CorrectAnswer != "" || req.HotspotID != "" {
			return fmt.Errorf("drag-drop question carries fields of another type")
		}
	}
	return nil
}

func (req *QuestionRequest) toModel(quizID string) (*model.QuizQuestion, error) {
	q := &model.QuizQuestion{
		QuizID:        quizID,
		Type:          req.Type,
		Prompt:        req.Prompt,
		ImageURL:      req.ImageURL,
		CorrectAnswer: req.CorrectAnswer,
		HotspotID:     req.HotspotID,
		Points:        req.Points,
		Explanation:   req.Explanation,
		Order:         req.Order,
	}
	if len(req.Options) > 0 {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, err
		}
		q.Options = data
	}
	if len(req.Labels) > 0 {
		data, err := json.Marshal(req.Labels)
		if err != nil {
			return nil, err
		}
		q.Labels = data
	}
	return q, nil
}

// AddQuestion appends a validated question. The repository keeps the
// quiz's total_points in sync within the same write.
func (s *QuizService) AddQuestion(quizID string, req QuestionRequest) (*model.QuizQuestion, error) {
	if _, err := s.Quizzes.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	q, err := req.toModel(quizID)
	if err != nil {
		return nil, err
	}
	if err := s.Quizzes.CreateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) UpdateQuestion(quizID, questionID string, req QuestionRequest) (*model.QuizQuestion, error) {
	existing, err := s.Quizzes.FindQuestion(quizID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	q, err := req.toModel(quizID)
	if err != nil {
		return nil, err
	}
	q.UUIDBase = existing.UUIDBase

	if err := s.Quizzes.UpdateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) DeleteQuestion(quizID, questionID string) error {
	err := s.Quizzes.DeleteQuestion(quizID, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuestionNotFound
	}
	return err
}
