package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpan115/pan115/internal/version"
)

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version.Version)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "42", "987654321"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42, 987654321}, ids)

	_, err = parseIDs([]string{"1", "nope"})
	assert.Error(t, err)
}
