package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

func TestLoadPromptTemplate(t *testing.T) {
	tmpl, err := LoadPromptTemplate("testdata/prompts", "zero_shot.txt")
	require.NoError(t, err)
	assert.Contains(t, tmpl, PlaceholderDescription)

	_, err = LoadPromptTemplate("testdata/prompts", "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrompterDescriptionMode(t *testing.T) {
	tmpl, err := LoadPromptTemplate("testdata/prompts", "zero_shot.txt")
	require.NoError(t, err)
	p := &Prompter{Contract: openSplitter(t), Template: tmpl, Mode: ModeDescription}

	got, err := p.Prompt(ir.Task{Property: "always-positive", Version: "2"})
	require.NoError(t, err)
	assert.Equal(t,
		"Property: Every payee has a positive share.\nCode:\npragma solidity ^0.8.0;\ncontract PaymentSplitter { uint256 public totalShares; }\n\n",
		got)
}

func TestPrompterSpecificationMode(t *testing.T) {
	tmpl, err := LoadPromptTemplate("testdata/prompts", "spec_mode.txt")
	require.NoError(t, err)
	p := &Prompter{Contract: openSplitter(t), Template: tmpl, Mode: ModeSpecification}

	got, err := p.Prompt(ir.Task{Property: "always-positive", Version: "2"})
	require.NoError(t, err)
	assert.Contains(t, got, "Spec: invariant totalShares > 0\n")
	assert.NotContains(t, got, PlaceholderCode)
}

func TestPrompterUnknownProperty(t *testing.T) {
	p := &Prompter{Contract: openSplitter(t), Template: "{property_desc}"}
	_, err := p.Prompt(ir.Task{Property: "nope", Version: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrompterMissingSpecification(t *testing.T) {
	p := &Prompter{Contract: openSplitter(t), Template: "{specification}", Mode: ModeSpecification}
	_, err := p.Prompt(ir.Task{Property: "release-release", Version: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}
