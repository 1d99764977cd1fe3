package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerUnmarshalStringOrList(t *testing.T) {
	var text Answer
	require.NoError(t, json.Unmarshal([]byte(`"a quiet apartment"`), &text))
	assert.Equal(t, "a quiet apartment", text.Text)
	assert.Nil(t, text.Options)

	var list Answer
	require.NoError(t, json.Unmarshal([]byte(`["garden","terrace"]`), &list))
	assert.Empty(t, list.Text)
	assert.Equal(t, []string{"garden", "terrace"}, list.Options)

	var bad Answer
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &bad))
}

func TestAnswerRoundTripPreservesShape(t *testing.T) {
	data, err := json.Marshal(Answer{Options: []string{"dog", "cat"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["dog","cat"]`, string(data))

	data, err = json.Marshal(Answer{Text: "none"})
	require.NoError(t, err)
	assert.JSONEq(t, `"none"`, string(data))
}

func TestAnswerString(t *testing.T) {
	assert.Equal(t, "garden, terrace", Answer{Options: []string{"garden", "terrace"}}.String())
	assert.Equal(t, "none", Answer{Text: "none"}.String())
}

func TestQuestionnaireValidateReportsMissing(t *testing.T) {
	answers := QuestionnaireAnswers{}
	for _, label := range RequiredQuestions {
		answers[label] = Answer{Text: "yes"}
	}
	assert.Empty(t, answers.Validate())

	delete(answers, RequiredQuestions[2])
	answers[RequiredQuestions[4]] = Answer{Text: "   "}
	answers[RequiredQuestions[5]] = Answer{Options: []string{"", " "}}

	missing := answers.Validate()
	assert.Contains(t, missing, RequiredQuestions[2])
	assert.Contains(t, missing, RequiredQuestions[4])
	assert.Contains(t, missing, RequiredQuestions[5])
	assert.Len(t, missing, 3)
}

func TestRequestAnswersLegacyPlainString(t *testing.T) {
	legacy := AdoptionRequest{Message: "please let me adopt Luna"}
	_, ok := legacy.Answers()
	assert.False(t, ok)

	structured := AdoptionRequest{Message: `{"Housing type":"apartment"}`}
	answers, ok := structured.Answers()
	require.True(t, ok)
	assert.Equal(t, "apartment", answers["Housing type"].Text)
}

func TestRequestStatusActive(t *testing.T) {
	assert.True(t, RequestPending.Active())
	assert.True(t, RequestAccepted.Active())
	assert.False(t, RequestRejected.Active())
	assert.False(t, RequestCompleted.Active())
}
