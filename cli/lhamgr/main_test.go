package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/lhamgr/internal/logger"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/test/testutil"
)

type testEnv struct {
	srv      *testutil.RepoServer
	writeDir string
	cfgPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	// The config store exports the search path; restore it after the test.
	t.Setenv("LHAPDF_DATA_PATH", "")
	t.Setenv("LHAPATH", "")

	var logs bytes.Buffer
	logger.SetTestOutput(&logs)
	t.Cleanup(logger.UnsetTestOutput)

	srv := testutil.NewRepoServer(t)
	srv.Put("/sets/pdfsets.index", testutil.IndexContent("1000 OtherSet", "324900 ExampleSet"))
	srv.Put("/sets/ExampleSet.tar.gz", testutil.BuildSetArchive(t, "ExampleSet", 2, 324900, true))

	writeDir := filepath.Join(t.TempDir(), "data")
	return &testEnv{
		srv:      srv,
		writeDir: writeDir,
		cfgPath:  testutil.SetupTestConfig(t, writeDir, srv.URL+"/sets", srv.URL+"/sets/pdfsets.index"),
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.cfgPath, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLookup(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "lookup", "324901")
	require.NoError(t, err)
	assert.Equal(t, "ExampleSet/1\n", out)
	assert.Equal(t, 1, env.srv.Hits("/sets/pdfsets.index"))
	assert.FileExists(t, filepath.Join(env.writeDir, "pdfsets.index"))

	_, err = env.run(t, "lookup", "5")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownID)
	assert.EqualError(t, err, "did not find PDF with LHAID = 5: unknown identifier")

	_, err = env.run(t, "lookup", "abc")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownID)
}

func TestPDF_BySetAndID(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "pdf", "ExampleSet/1")
	require.NoError(t, err)
	assert.Contains(t, out, "LHAPDF ID:  324901")
	assert.Contains(t, out, "Type:       replica")
	assert.Equal(t, 1, env.srv.Hits("/sets/ExampleSet.tar.gz"))

	out, err = env.run(t, "pdf", "--id", "324900")
	require.NoError(t, err)
	assert.Contains(t, out, "Type:       central")
	assert.Equal(t, 1, env.srv.Hits("/sets/ExampleSet.tar.gz"), "installed set must not be fetched again")

	_, err = env.run(t, "pdf")
	assert.Error(t, err)
	_, err = env.run(t, "pdf", "ExampleSet", "--id", "1")
	assert.Error(t, err)
	_, err = env.run(t, "pdf", "ExampleSet/x")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidMember)
}

func TestSet(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "set", "ExampleSet", "--members")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:         ExampleSet")
	assert.Contains(t, out, "Description:  ExampleSet test set")
	assert.Contains(t, out, "Members:      2")
	assert.Contains(t, out, "Error type:   replicas")
	assert.Contains(t, out, "central")
}

func TestFetch(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "fetch", "ExampleSet")
	require.NoError(t, err)
	assert.Equal(t, "ExampleSet: fetched\n", out)

	out, err = env.run(t, "fetch", "ExampleSet", "foobar")
	require.Error(t, err)
	assert.Contains(t, out, "ExampleSet: already-present\n")
	assert.Contains(t, out, "foobar: not-found-remotely\n")
	assert.EqualError(t, err, "could not fetch foobar")
	assert.Equal(t, 1, env.srv.Hits("/sets/ExampleSet.tar.gz"))
}

func TestIndexRefresh(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "index", "refresh")
	require.NoError(t, err)
	_, err = env.run(t, "index", "refresh")
	require.NoError(t, err)
	assert.Equal(t, 2, env.srv.Hits("/sets/pdfsets.index"))
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, env.cfgPath+"\n", out)

	out, err = env.run(t, "config", "get", "write_dir")
	require.NoError(t, err)
	assert.Equal(t, env.writeDir+"\n", out)

	_, err = env.run(t, "config", "set", "lock_timeout", "3s")
	require.NoError(t, err)
	out, err = env.run(t, "config", "get", "lock_timeout")
	require.NoError(t, err)
	assert.Equal(t, "3s\n", out)

	out, err = env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "SETTING")
	assert.Contains(t, out, "index_url")

	_, err = env.run(t, "config", "get", "nope")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownConfigKey)

	_, err = env.run(t, "config", "init")
	assert.ErrorIs(t, err, pkgerrors.ErrConfigFileExists)
}

func TestConfig_CreatedOnFirstUse(t *testing.T) {
	env := newTestEnv(t)
	dataDir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("LHAPDF_DATA_PATH", dataDir+":/opt/lhapdf")

	env.cfgPath = filepath.Join(t.TempDir(), "lhamgr", "config.yaml")
	out, err := env.run(t, "config", "get", "write_dir")
	require.NoError(t, err)
	assert.Equal(t, dataDir+"\n", out)
	assert.FileExists(t, env.cfgPath)

	out, err = env.run(t, "config", "get", "read_dirs")
	require.NoError(t, err)
	assert.Equal(t, "/opt/lhapdf\n", out)
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "fetch", "ExampleSet")
	require.NoError(t, err)

	staging := filepath.Join(env.writeDir, ".ExampleSet.partial-1")
	require.NoError(t, os.MkdirAll(staging, 0o755))

	out, err := env.run(t, "cache", "dir")
	require.NoError(t, err)
	assert.Equal(t, env.writeDir+"\n", out)

	out, err = env.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  ExampleSet")

	out, err = env.run(t, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "PDF Sets:     1")
	assert.Contains(t, out, "Leftovers:    1")

	out, err = env.run(t, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, staging)
	assert.NoDirExists(t, staging)
	assert.DirExists(t, filepath.Join(env.writeDir, "ExampleSet"))
}

func TestVerbosityAndVersion(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "verbosity")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = env.run(t, "verbosity", "3")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lhamgr version ")
	assert.Contains(t, out, "LHAPDF library: 6.5.4 (supported")
}
