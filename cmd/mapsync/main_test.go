package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svengali/UE4Scripts/internal/sync"
)

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Revision")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	rootCmd.SetArgs([]string{"push", "--bogus"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, sync.ErrConfig)
	assert.Equal(t, sync.ExitUsage, sync.ExitCode(err))
}

func TestMissingSyncRootIsDistinctExit(t *testing.T) {
	rootCmd.SetArgs([]string{"push", "--source-dir", t.TempDir()})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, sync.ErrSyncRoot)
	assert.Equal(t, sync.ExitSyncRoot, sync.ExitCode(err))
}
