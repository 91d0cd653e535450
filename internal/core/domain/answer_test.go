package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError_Error(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		var syntaxErr *json.SyntaxError
		cause := json.Unmarshal([]byte("not valid json"), &struct{}{})
		assert.True(t, errors.As(cause, &syntaxErr))

		err := &ParseError{Raw: "not valid json", Reason: "no JSON object", Err: cause}

		assert.Contains(t, err.Error(), "answer format invalid")
		assert.Contains(t, err.Error(), "no JSON object")
		assert.ErrorIs(t, err, ErrAnswerFormat)
		assert.True(t, errors.As(err, &syntaxErr))
	})

	t.Run("without cause", func(t *testing.T) {
		err := &ParseError{Raw: `{"source":"x"}`, Reason: "missing response field"}

		assert.Equal(t, "answer format invalid: missing response field", err.Error())
		assert.ErrorIs(t, err, ErrAnswerFormat)
	})
}

func TestParsedAnswer_JSONFields(t *testing.T) {
	var a ParsedAnswer
	err := json.Unmarshal([]byte(`{"response":"ঢাকা","source":"knowledge_base"}`), &a)

	assert.NoError(t, err)
	assert.Equal(t, "ঢাকা", a.Response)
	assert.Equal(t, SourceKnowledgeBase, a.Source)
}
