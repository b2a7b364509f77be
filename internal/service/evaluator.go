package service

import (
	"anatomy_edu_backend/internal/model"
	"encoding/json"
	"math"
	"strings"
)

// dragTolerance is the absolute per-axis distance, in canvas units,
// within which a dropped label still counts as correctly placed.
const dragTolerance = 20.0

// EvalResult is the verdict for one question.
type EvalResult struct {
	IsCorrect    bool
	PointsEarned float64
}

// Evaluate grades one submitted answer against a question definition.
// It is pure and never fails: malformed answers, unknown option ids,
// questions with a broken answer key all come back as incorrect with
// zero points, so one bad answer cannot abort grading of the rest of
// the attempt. Points are all-or-nothing.
func Evaluate(q *model.QuizQuestion, answer json.RawMessage) EvalResult {
	if len(answer) == 0 {
		return EvalResult{}
	}

	key, err := decodeKey(q)
	if err != nil || key == nil {
		return EvalResult{}
	}

	if !key.matches(answer) {
		return EvalResult{}
	}
	return EvalResult{IsCorrect: true, PointsEarned: q.Points}
}

// answerKey is the tagged-variant view of a question's correct answer.
// Each question type decodes to exactly one variant, which keeps the
// grading dispatch exhaustive and shapeless rows ungradable rather
// than misgraded.
type answerKey interface {
	matches(answer json.RawMessage) bool
}

func decodeKey(q *model.QuizQuestion) (answerKey, error) {
	switch q.Type {
	case model.MultipleChoice:
		opts, err := q.DecodeOptions()
		if err != nil {
			return nil, err
		}
		for _, o := range opts {
			if o.IsCorrect {
				return choiceKey{correctID: o.ID}, nil
			}
		}
		// no option flagged correct: ungradable, never a panic
		return nil, nil
	case model.TrueFalse:
		return exactTextKey{expected: q.CorrectAnswer}, nil
	case model.FillBlank:
		return foldedTextKey{expected: q.CorrectAnswer}, nil
	case model.OrganIdentification:
		return hotspotKey{id: q.HotspotID}, nil
	case model.DragDrop:
		labels, err := q.DecodeLabels()
		if err != nil {
			return nil, err
		}
		if len(labels) == 0 {
			return nil, nil
		}
		return placementKey{labels: labels}, nil
	}
	return nil, nil
}

// choiceKey matches when the submitted option id is the one flagged
// correct.
type choiceKey struct {
	correctID string
}

func (k choiceKey) matches(answer json.RawMessage) bool {
	var id string
	if err := json.Unmarshal(answer, &id); err != nil {
		return false
	}
	return id == k.correctID
}

// exactTextKey compares verbatim, no transformation (true-false).
type exactTextKey struct {
	expected string
}

func (k exactTextKey) matches(answer json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(answer, &s); err != nil {
		return false
	}
	return s == k.expected
}

// foldedTextKey compares case-insensitively with surrounding
// whitespace trimmed on both sides (fill-blank).
type foldedTextKey struct {
	expected string
}

func (k foldedTextKey) matches(answer json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(answer, &s); err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(s)) == strings.ToLower(strings.TrimSpace(k.expected))
}

// hotspotKey matches the identified region id.
type hotspotKey struct {
	id string
}

func (k hotspotKey) matches(answer json.RawMessage) bool {
	var id string
	if err := json.Unmarshal(answer, &id); err != nil {
		return false
	}
	return id == k.id
}

// placementKey requires every label to be placed within dragTolerance
// of its correct position on both axes. A missing or out-of-tolerance
// label fails the whole question.
type placementKey struct {
	labels []model.DragLabel
}

func (k placementKey) matches(answer json.RawMessage) bool {
	var placements map[string]model.Position
	if err := json.Unmarshal(answer, &placements); err != nil {
		return false
	}

	for _, label := range k.labels {
		placed, ok := placements[label.ID]
		if !ok {
			return false
		}
		if math.Abs(placed.X-label.CorrectPosition.X) > dragTolerance ||
			math.Abs(placed.Y-label.CorrectPosition.Y) > dragTolerance {
			return false
		}
	}
	return true
}

// correctAnswerJSON renders the question's answer key for storage in
// the attempt record and, when the quiz allows it, the graded
// response.
func correctAnswerJSON(q *model.QuizQuestion) json.RawMessage {
	switch q.Type {
	case model.MultipleChoice:
		opts, err := q.DecodeOptions()
		if err != nil {
			return nil
		}
		for _, o := range opts {
			if o.IsCorrect {
				data, _ := json.Marshal(o.ID)
				return data
			}
		}
		return nil
	case model.TrueFalse, model.FillBlank:
		data, _ := json.Marshal(q.CorrectAnswer)
		return data
	case model.OrganIdentification:
		data, _ := json.Marshal(q.HotspotID)
		return data
	case model.DragDrop:
		labels, err := q.DecodeLabels()
		if err != nil {
			return nil
		}
		positions := make(map[string]model.Position, len(labels))
		for _, l := range labels {
			positions[l.ID] = l.CorrectPosition
		}
		data, _ := json.Marshal(positions)
		return data
	}
	return nil
}
