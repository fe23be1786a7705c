package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/talentfit/internal/profile"
	"gopkg.in/telebot.v4"
)

// skipAnswer typed instead of pressing the skip button.
const skipAnswer = "-"

var errEmptyAnswer = fmt.Errorf("%w: the answer is empty", profile.ErrInvalidAnswer)

// formStep is one question of a multi-step dialog filling a T.
type formStep[T any] struct {
	Field    string
	Choices  []string
	Optional bool
	Apply    func(form *T, answer string) error
	Current  func(form *T) string
}

// stepFields returns the field names in dialog order.
func stepFields[T any](steps []formStep[T]) []string {
	fields := make([]string, 0, len(steps))
	for _, s := range steps {
		fields = append(fields, s.Field)
	}
	return fields
}

// firstFailing returns the first step whose field failed validation, or -1.
func firstFailing[T any](steps []formStep[T], errs map[string]string) int {
	for i, s := range steps {
		if _, ok := errs[s.Field]; ok {
			return i
		}
	}
	return -1
}

// stepByField finds the step that edits field.
func stepByField[T any](steps []formStep[T], field string) (formStep[T], bool) {
	for _, s := range steps {
		if s.Field == field {
			return s, true
		}
	}
	return formStep[T]{}, false
}

// choiceAnswer resolves the index carried by a choice button.
func choiceAnswer(choices []string, data string) (string, error) {
	idx, err := strconv.Atoi(data)
	if err != nil || idx < 0 || idx >= len(choices) {
		return "", fmt.Errorf("%w: unknown choice %q", profile.ErrInvalidAnswer, data)
	}
	return choices[idx], nil
}

func requireText(answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errEmptyAnswer
	}
	return answer, nil
}

// stepHeader numbers the steps of a dialog.
func stepHeader(p printer, index, total int) string {
	return p.F("form.step", map[string]any{"n": index + 1, "total": total}) + "\n"
}

// stepPrompt renders the question of a step. skippable adds the skip button.
func stepPrompt[T any](
	p printer,
	prefix string,
	step formStep[T],
	form *T,
	skippable bool,
) (string, *telebot.ReplyMarkup) {
	var sb strings.Builder
	sb.WriteString(p.T(prefix + step.Field))
	if step.Current != nil {
		if current := step.Current(form); current != "" {
			sb.WriteString("\n" + p.F("form.current", map[string]any{"value": escape(current)}))
		}
	}

	switch {
	case len(step.Choices) > 0:
		return sb.String(), choiceKeyboard(p, step.Choices, skippable)
	case skippable:
		sb.WriteString("\n" + p.T("form.skip_hint"))
		return sb.String(), skipKeyboard(p)
	default:
		return sb.String(), nil
	}
}
