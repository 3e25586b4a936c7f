package sandbox

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var legalIdentifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func TestDeriveSchemaName_Deterministic(t *testing.T) {
	a := DeriveSchemaName("u1", "a1")
	b := DeriveSchemaName("u1", "a1")
	assert.Equal(t, a.String(), b.String())
}

func TestDeriveSchemaName_DistinctPairsDistinctNames(t *testing.T) {
	pairs := [][2]string{
		{"u1", "a1"},
		{"u1", "a2"},
		{"u2", "a1"},
		{"u1_a", "1"}, // would join identically to ("u1", "a_1") without the digest
		{"u1", "a_1"},
		{"user-1", "a1"}, // sanitizes to the same part as ("user1", "a1")
		{"user1", "a1"},
		{"", "a1"},
		{"u1", ""},
	}

	seen := map[string][2]string{}
	for _, pair := range pairs {
		name := DeriveSchemaName(pair[0], pair[1]).String()
		if prev, ok := seen[name]; ok {
			t.Fatalf("pairs %v and %v collided on %s", prev, pair, name)
		}
		seen[name] = pair
	}
}

func TestDeriveSchemaName_ProducesLegalIdentifier(t *testing.T) {
	inputs := [][2]string{
		{"user@example.com", "507f1f77bcf86cd799439011"},
		{"Robert'); DROP TABLE students;--", "a1"},
		{"", ""},
		{"ユーザー", "課題"},
	}

	for _, pair := range inputs {
		name := DeriveSchemaName(pair[0], pair[1])
		require.Regexp(t, legalIdentifier, name.String(), "pair %v", pair)
		assert.LessOrEqual(t, len(name.String()), 63, "pair %v", pair)
	}
}

func TestDeriveSchemaName_CapsEachPart(t *testing.T) {
	long := ""
	for i := 0; i < 10; i++ {
		long += "abcdefghij"
	}
	name := DeriveSchemaName(long, long)
	assert.LessOrEqual(t, len(name.String()), 63)
}

func TestSchemaName_Quoted(t *testing.T) {
	name := DeriveSchemaName("u1", "a1")
	assert.Equal(t, fmt.Sprintf("%q", name.String()), name.Quoted())
}
