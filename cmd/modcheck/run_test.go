package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	args, err := parseArgs(
		[]string{"source=./sdk"},
		[]string{"verbose=true", "schema=./schema.json"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"source":  "./sdk",
		"verbose": "true",
		"schema":  "./schema.json",
	}, args)
}

func TestParseArgs_Empty(t *testing.T) {
	args, err := parseArgs(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, args)
}

func TestParseArgs_Malformed(t *testing.T) {
	_, err := parseArgs([]string{"no-equals"}, nil)
	require.Error(t, err)

	_, err = parseArgs(nil, []string{"=value"})
	require.Error(t, err)
}
