package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIKeyPrecedence(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file\n"), 0600))

	t.Setenv("OPENAI_API_KEY", "")
	key, err := ResolveAPIKey(Config{Provider: ProviderOpenAI, KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)

	t.Setenv("OPENAI_API_KEY", "from-env")
	key, err = ResolveAPIKey(Config{Provider: ProviderOpenAI, KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = ResolveAPIKey(Config{Provider: ProviderOpenAI, APIKey: "explicit", KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "explicit", key)
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := ResolveAPIKey(Config{Provider: ProviderGemini})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = ResolveAPIKey(Config{Provider: ProviderGemini, KeyFile: filepath.Join(t.TempDir(), "none")})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestNewOpenAI(t *testing.T) {
	o, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-5"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, o)
}

func TestLegacyTokenParam(t *testing.T) {
	assert.True(t, legacyTokenParam("gpt-4o-mini"))
	assert.True(t, legacyTokenParam("gpt-3.5-turbo"))
	assert.False(t, legacyTokenParam("gpt-5"))
	assert.False(t, legacyTokenParam("gpt-4.1"))
}

func TestBudgetDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, budget(0))
	assert.Equal(t, 2000, budget(2000))
}

func TestScriptedServesInOrder(t *testing.T) {
	s := NewScripted("one", "two")
	ctx := context.Background()

	got, err := s.Query(ctx, "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, "one", got)
	got, err = s.Query(ctx, "p2", 20)
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	_, err = s.Query(ctx, "p3", 30)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []Call{{"p1", 10}, {"p2", 20}, {"p3", 30}}, s.Calls())
}

func TestScriptedRepeat(t *testing.T) {
	s := NewScripted("only")
	s.Repeat = true
	for i := 0; i < 3; i++ {
		got, err := s.Query(context.Background(), "p", 1)
		require.NoError(t, err)
		assert.Equal(t, "only", got)
	}
}

func TestScriptedFailOn(t *testing.T) {
	boom := errors.New("rate limited")
	s := NewScripted("a", "b")
	s.FailOn, s.Fail = 2, boom

	_, err := s.Query(context.Background(), "p", 1)
	require.NoError(t, err)
	_, err = s.Query(context.Background(), "p", 1)
	assert.ErrorIs(t, err, boom)
}
