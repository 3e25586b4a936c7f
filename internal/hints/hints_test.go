package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGenerator("", "", "gpt-4o-mini")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildPrompt_IncludesContext(t *testing.T) {
	prompt := buildPrompt(Request{
		Question:   "Find employees earning above 70000.",
		SchemaText: "Table: employees",
		UserQuery:  "SELECT name FROM employees",
	})

	assert.Contains(t, prompt, "Find employees earning above 70000.")
	assert.Contains(t, prompt, "Table: employees")
	assert.Contains(t, prompt, "SELECT name FROM employees")
	assert.Contains(t, prompt, "WITHOUT giving away")
}

func TestBuildPrompt_OmitsEmptyUserQuery(t *testing.T) {
	prompt := buildPrompt(Request{Question: "Q", SchemaText: "T"})
	assert.NotContains(t, prompt, "STUDENT'S CURRENT QUERY")
}
