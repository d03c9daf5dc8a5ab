package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/store"
)

// seedLedger records one generation per run number and returns the db path.
func seedLedger(t *testing.T, runs ...string) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "ledger.db")
	for _, run := range runs {
		_, err := runCLI(t, "generate", filepath.Join(dir, "run.json"), "--record", db, "-r", run)
		require.NoError(t, err)
	}
	return db
}

func TestHistoryRequiresDB(t *testing.T) {
	_, err := runCLI(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestHistoryMissingDB(t *testing.T) {
	out, err := runCLI(t, "history", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No generations recorded.")
}

func TestHistoryListsInOrder(t *testing.T) {
	db := seedLedger(t, "10", "11", "10")

	out, err := runCLI(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)

	var result HistoryResult
	assert.Equal(t, "ok", decodeData(t, out, &result))
	// The third generation repeats the first document and is not a new row.
	require.Len(t, result.Generations, 2)
	assert.Equal(t, int64(10), result.Generations[0].RunNumber)
	assert.Equal(t, int64(11), result.Generations[1].RunNumber)
	assert.Less(t, result.Generations[0].Seq, result.Generations[1].Seq)
	assert.Nil(t, result.Generations[0].Verified)
}

func TestHistoryFilterByRun(t *testing.T) {
	db := seedLedger(t, "10", "11")

	out, err := runCLI(t, "--format", "json", "history", "--db", db, "--run", "11")
	require.NoError(t, err)

	var result HistoryResult
	decodeData(t, out, &result)
	require.Len(t, result.Generations, 1)
	assert.Equal(t, int64(11), result.Generations[0].RunNumber)
	assert.Equal(t, "fake-app", result.Generations[0].Profile)
}

func TestHistoryFilterByParams(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "ledger.db")
	out := filepath.Join(dir, "run.json")
	configPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("settings:\n  initial_tokens: 3\n"), 0644))

	// Same parameters, different settings: two documents, one params hash.
	for _, args := range [][]string{
		{"generate", out, "--record", db},
		{"generate", out, "--record", db, "--config", configPath},
		{"generate", out, "--record", db, "-r", "9"},
	} {
		_, err := runCLI(t, args...)
		require.NoError(t, err)
	}

	listed, err := runCLI(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	var all HistoryResult
	decodeData(t, listed, &all)
	require.Len(t, all.Generations, 3)
	assert.Equal(t, all.Generations[0].ParamsHash, all.Generations[1].ParamsHash)
	assert.NotEqual(t, all.Generations[0].ParamsHash, all.Generations[2].ParamsHash)

	listed, err = runCLI(t, "--format", "json", "history", "--db", db, "--params", all.Generations[0].ParamsHash)
	require.NoError(t, err)
	var same HistoryResult
	decodeData(t, listed, &same)
	require.Len(t, same.Generations, 2)
	assert.Equal(t, all.Generations[0].ID, same.Generations[0].ID)
	assert.Equal(t, all.Generations[1].ID, same.Generations[1].ID)

	_, err = runCLI(t, "history", "--db", db, "--params", "x", "--run", "9")
	require.Error(t, err)
}

func TestHistoryVerify(t *testing.T) {
	db := seedLedger(t, "333", "334")

	out, err := runCLI(t, "history", "--db", db, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "✓")
	assert.NotContains(t, out, "✗")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE generations SET document = replace(document, '"run":333', '"run":335') WHERE run_number = 333`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err = runCLI(t, "--format", "json", "history", "--db", db, "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result HistoryResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Generations, 2)
	require.NotNil(t, result.Generations[0].Verified)
	assert.False(t, *result.Generations[0].Verified)
	assert.True(t, *result.Generations[1].Verified)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
