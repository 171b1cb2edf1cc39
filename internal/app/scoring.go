package app

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"live-quiz-service/internal/domain"
)

// Award is the outcome of grading one answer.
type Award struct {
	// Correct is nil for ungraded free-text answers.
	Correct    *bool
	BasePoints int
	SpeedBonus int
}

// Total is what the answer adds to the participant score.
func (a Award) Total() int {
	return a.BasePoints + a.SpeedBonus
}

// scoreAnswer grades answer against question and prices the result.
func scoreAnswer(question domain.Question, bonus domain.SpeedBonus, answer json.RawMessage, latency float64) Award {
	correct := grade(question, answer)
	if correct == nil || !*correct {
		return Award{Correct: correct}
	}
	return Award{
		Correct:    correct,
		BasePoints: max(question.Points, 0),
		SpeedBonus: speedBonus(bonus, latency),
	}
}

// speedBonus decays by PointsPerStep for every full StepSeconds of latency.
func speedBonus(bonus domain.SpeedBonus, latency float64) int {
	if !bonus.Enabled {
		return 0
	}
	bonus = bonus.Normalize()
	steps := int(latency / float64(bonus.StepSeconds))
	return max(0, bonus.MaxPoints-steps*bonus.PointsPerStep)
}

func grade(question domain.Question, answer json.RawMessage) *bool {
	var ok bool
	switch question.Type {
	case domain.QuestionFreeText:
		return nil
	case domain.QuestionSingleChoice:
		given, hasGiven := scalarText(answer)
		want, hasWant := scalarText(question.CorrectAnswer)
		ok = hasGiven && hasWant && given == want
	case domain.QuestionMultiChoice:
		given := textList(answer)
		want := textList(question.CorrectAnswer)
		ok = len(want) > 0 && slices.Equal(given, want)
	case domain.QuestionBoolean:
		ok = truthy(answer) == truthy(question.CorrectAnswer)
	}
	return &ok
}

// scalarText renders a JSON string, number or bool as text so that "2" and
// 2 compare equal.
func scalarText(raw json.RawMessage) (string, bool) {
	var v any
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &v) != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// textList returns the sorted text form of a JSON list. A lone scalar is a
// one-element list; anything else is empty.
func textList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if text, ok := scalarText(raw); ok {
			return []string{text}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		text, ok := scalarText(item)
		if !ok {
			return nil
		}
		out = append(out, text)
	}
	slices.Sort(out)
	return out
}

func truthy(raw json.RawMessage) bool {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}
