package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolatedConstraint(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "responses_participant_question_key"}

	name, ok := violatedConstraint(fmt.Errorf("record response: %w", dup))
	require.True(t, ok)
	assert.Equal(t, "responses_participant_question_key", name)

	_, ok = violatedConstraint(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok, "foreign key violations are not unique violations")

	_, ok = violatedConstraint(errors.New("boom"))
	assert.False(t, ok)
}

func TestJSONBParam(t *testing.T) {
	assert.Nil(t, jsonbParam(nil))
	assert.Nil(t, jsonbParam(json.RawMessage("null")))
	assert.Equal(t, `["a","b"]`, jsonbParam(json.RawMessage(`["a","b"]`)))
}

func TestOptionsParam(t *testing.T) {
	got, err := optionsParam(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = optionsParam([]string{"Paris", "Rome"})
	require.NoError(t, err)
	assert.JSONEq(t, `["Paris","Rome"]`, got)
}
