package service

import (
	"anatomy_edu_backend/internal/model"
	"encoding/json"
	"testing"
)

func choiceQuestion(points float64, options ...model.ChoiceOption) *model.QuizQuestion {
	data, _ := json.Marshal(options)
	return &model.QuizQuestion{
		Type:    model.MultipleChoice,
		Options: data,
		Points:  points,
	}
}

func dragQuestion(points float64, labels ...model.DragLabel) *model.QuizQuestion {
	data, _ := json.Marshal(labels)
	return &model.QuizQuestion{
		Type:   model.DragDrop,
		Labels: data,
		Points: points,
	}
}

func raw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return data
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := choiceQuestion(5,
		model.ChoiceOption{ID: "a", Text: "Liver"},
		model.ChoiceOption{ID: "b", Text: "Heart", IsCorrect: true},
		model.ChoiceOption{ID: "c", Text: "Kidney"},
	)

	tests := []struct {
		name    string
		answer  json.RawMessage
		correct bool
	}{
		{"correct option", raw(t, "b"), true},
		{"wrong option", raw(t, "a"), false},
		{"unknown option id", raw(t, "z"), false},
		{"non-string payload", raw(t, 42), false},
		{"empty answer", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(q, tt.answer)
			if res.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tt.correct)
			}
			wantPoints := 0.0
			if tt.correct {
				wantPoints = 5
			}
			if res.PointsEarned != wantPoints {
				t.Errorf("PointsEarned = %v, want %v", res.PointsEarned, wantPoints)
			}
		})
	}
}

func TestEvaluateMultipleChoiceNoCorrectOption(t *testing.T) {
	q := choiceQuestion(5,
		model.ChoiceOption{ID: "a", Text: "Liver"},
		model.ChoiceOption{ID: "b", Text: "Heart"},
	)
	res := Evaluate(q, raw(t, "a"))
	if res.IsCorrect || res.PointsEarned != 0 {
		t.Errorf("question without a correct option graded as %+v, want incorrect", res)
	}
}

func TestEvaluateMultipleChoiceMalformedOptions(t *testing.T) {
	q := &model.QuizQuestion{
		Type:    model.MultipleChoice,
		Options: json.RawMessage(`{"not":"an array"}`),
		Points:  5,
	}
	res := Evaluate(q, raw(t, "a"))
	if res.IsCorrect || res.PointsEarned != 0 {
		t.Errorf("malformed options graded as %+v, want incorrect", res)
	}
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &model.QuizQuestion{
		Type:          model.TrueFalse,
		CorrectAnswer: "true",
		Points:        2,
	}

	tests := []struct {
		name    string
		answer  json.RawMessage
		correct bool
	}{
		{"matching", raw(t, "true"), true},
		{"opposite", raw(t, "false"), false},
		{"case differs", raw(t, "True"), false},
		{"boolean payload", raw(t, true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := Evaluate(q, tt.answer); res.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tt.correct)
			}
		})
	}
}

func TestEvaluateFillBlank(t *testing.T) {
	q := &model.QuizQuestion{
		Type:          model.FillBlank,
		CorrectAnswer: "Mitral Valve",
		Points:        3,
	}

	tests := []struct {
		name    string
		answer  json.RawMessage
		correct bool
	}{
		{"exact", raw(t, "Mitral Valve"), true},
		{"lowercase", raw(t, "mitral valve"), true},
		{"surrounding whitespace", raw(t, "  MITRAL VALVE \n"), true},
		{"inner whitespace differs", raw(t, "Mitral  Valve"), false},
		{"wrong answer", raw(t, "Tricuspid Valve"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := Evaluate(q, tt.answer); res.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tt.correct)
			}
		})
	}
}

func TestEvaluateOrganIdentification(t *testing.T) {
	q := &model.QuizQuestion{
		Type:      model.OrganIdentification,
		HotspotID: "left-ventricle",
		Points:    4,
	}

	if res := Evaluate(q, raw(t, "left-ventricle")); !res.IsCorrect || res.PointsEarned != 4 {
		t.Errorf("correct hotspot graded as %+v", res)
	}
	if res := Evaluate(q, raw(t, "right-ventricle")); res.IsCorrect {
		t.Errorf("wrong hotspot graded correct")
	}
	if res := Evaluate(q, json.RawMessage(`{"x":1}`)); res.IsCorrect {
		t.Errorf("object payload graded correct")
	}
}

func TestEvaluateDragDrop(t *testing.T) {
	q := dragQuestion(10,
		model.DragLabel{ID: "aorta", CorrectPosition: model.Position{X: 100, Y: 50}},
		model.DragLabel{ID: "vena-cava", CorrectPosition: model.Position{X: 200, Y: 80}},
	)

	tests := []struct {
		name    string
		answer  interface{}
		correct bool
	}{
		{
			"exact placement",
			map[string]model.Position{
				"aorta":     {X: 100, Y: 50},
				"vena-cava": {X: 200, Y: 80},
			},
			true,
		},
		{
			"at tolerance boundary",
			map[string]model.Position{
				"aorta":     {X: 120, Y: 30},
				"vena-cava": {X: 180, Y: 100},
			},
			true,
		},
		{
			"one unit past tolerance on x",
			map[string]model.Position{
				"aorta":     {X: 121, Y: 50},
				"vena-cava": {X: 200, Y: 80},
			},
			false,
		},
		{
			"one unit past tolerance on y",
			map[string]model.Position{
				"aorta":     {X: 100, Y: 50},
				"vena-cava": {X: 200, Y: 101},
			},
			false,
		},
		{
			"missing label",
			map[string]model.Position{
				"aorta": {X: 100, Y: 50},
			},
			false,
		},
		{
			"extra unknown label still passes",
			map[string]model.Position{
				"aorta":     {X: 100, Y: 50},
				"vena-cava": {X: 200, Y: 80},
				"stray":     {X: 0, Y: 0},
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(q, raw(t, tt.answer))
			if res.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tt.correct)
			}
			if tt.correct && res.PointsEarned != 10 {
				t.Errorf("PointsEarned = %v, want 10", res.PointsEarned)
			}
		})
	}
}

func TestEvaluateDragDropMalformedAnswer(t *testing.T) {
	q := dragQuestion(10, model.DragLabel{ID: "aorta", CorrectPosition: model.Position{X: 1, Y: 1}})
	if res := Evaluate(q, json.RawMessage(`["not","a","map"]`)); res.IsCorrect {
		t.Errorf("malformed placements graded correct")
	}
}

func TestCorrectAnswerJSON(t *testing.T) {
	mc := choiceQuestion(1,
		model.ChoiceOption{ID: "a"},
		model.ChoiceOption{ID: "b", IsCorrect: true},
	)
	if got := string(correctAnswerJSON(mc)); got != `"b"` {
		t.Errorf("multiple-choice key = %s, want \"b\"", got)
	}

	tf := &model.QuizQuestion{Type: model.TrueFalse, CorrectAnswer: "false"}
	if got := string(correctAnswerJSON(tf)); got != `"false"` {
		t.Errorf("true-false key = %s", got)
	}

	dd := dragQuestion(1, model.DragLabel{ID: "aorta", CorrectPosition: model.Position{X: 3, Y: 4}})
	var positions map[string]model.Position
	if err := json.Unmarshal(correctAnswerJSON(dd), &positions); err != nil {
		t.Fatalf("unmarshal drag-drop key: %v", err)
	}
	if positions["aorta"] != (model.Position{X: 3, Y: 4}) {
		t.Errorf("drag-drop key = %v", positions)
	}
}
