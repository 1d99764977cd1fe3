package models

import (
	"encoding/json"
	"strings"
)

// RequiredQuestions are the questionnaire fields every submission must
// answer. Labels double as the serialized keys so older readers render
// them directly.
var RequiredQuestions = []string{
	"Why do you want to adopt this pet?",
	"Housing type",
	"Do you own or rent your home?",
	"Does your home have outdoor space?",
	"Does everyone in your household agree to the adoption?",
	"Do you have other pets?",
	"Previous experience with pets",
	"How many hours a day would the pet be alone?",
	"Who will be the pet's primary caretaker?",
}

// Answer holds a single questionnaire answer: free text or an ordered
// multi-select list.
type Answer struct {
	Text    string
	Options []string
}

// Empty reports whether the answer carries no content.
func (a Answer) Empty() bool {
	if len(a.Options) > 0 {
		for _, opt := range a.Options {
			if strings.TrimSpace(opt) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(a.Text) == ""
}

// MarshalJSON serializes multi-select answers as a list and everything
// else as a plain string.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Options != nil {
		return json.Marshal(a.Options)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts either a string or a list of strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		a.Text = text
		a.Options = nil
		return nil
	}
	var options []string
	if err := json.Unmarshal(data, &options); err != nil {
		return err
	}
	a.Text = ""
	a.Options = options
	return nil
}

// String renders the answer the way request listings display it.
func (a Answer) String() string {
	if a.Options != nil {
		return strings.Join(a.Options, ", ")
	}
	return a.Text
}

// QuestionnaireAnswers is the flat label -> answer mapping persisted in
// AdoptionRequest.Message.
type QuestionnaireAnswers map[string]Answer

// Validate checks that every required question has a non-empty answer.
// It returns the labels that are missing or blank.
func (q QuestionnaireAnswers) Validate() []string {
	var missing []string
	for _, label := range RequiredQuestions {
		answer, ok := q[label]
		if !ok || answer.Empty() {
			missing = append(missing, label)
		}
	}
	return missing
}

// Serialize encodes the answers for storage.
func (q QuestionnaireAnswers) Serialize() (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
