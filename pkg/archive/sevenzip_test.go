package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/cato/pkg/policy"
)

func TestAnalyze7zMissingFile(t *testing.T) {
	analysis := Analyze7z(filepath.Join(t.TempDir(), "absent.7z"), policy.Default())

	require.NotNil(t, analysis.Failure)
	assert.Equal(t, "io", analysis.Failure.Kind)
	assert.False(t, analysis.Flagged)
}

func TestAnalyze7zNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.7z")
	require.NoError(t, os.WriteFile(path, []byte("definitely not seven-zip"), 0o644))

	analysis := Analyze7z(path, policy.Default())

	require.NotNil(t, analysis.Failure)
	assert.Equal(t, "7z", analysis.Failure.Kind)
	assert.Error(t, analysis.Failure.Err)
}
