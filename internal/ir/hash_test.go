package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptIDDeterminism(t *testing.T) {
	task := Task{Property: "P1", Version: "3"}

	id1, err := AttemptID("run-1", task, 1)
	require.NoError(t, err)
	id2, err := AttemptID("run-1", task, 1)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "AttemptID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestAttemptIDChangesWithInput(t *testing.T) {
	task := Task{Property: "P1", Version: "3"}

	id1 := MustAttemptID("run-1", task, 1)
	id2 := MustAttemptID("run-2", task, 1)
	id3 := MustAttemptID("run-1", task, 2)
	id4 := MustAttemptID("run-1", Task{Property: "P2", Version: "3"}, 1)

	assert.NotEqual(t, id1, id2, "different runs should produce different IDs")
	assert.NotEqual(t, id1, id3, "different iterations should produce different IDs")
	assert.NotEqual(t, id1, id4, "different tasks should produce different IDs")
}

func TestPromptHashNormalizesUnicode(t *testing.T) {
	// "é" precomposed vs "e" + combining acute
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	assert.Equal(t, PromptHash(composed), PromptHash(decomposed))
	assert.NotEqual(t, PromptHash("a"), PromptHash("b"))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{"x":1}`)
	assert.NotEqual(t, hashWithDomain(DomainAttempt, data), hashWithDomain(DomainPrompt, data))
}
