package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/docsync/internal/domain"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	reconcileuc "github.com/kailas-cloud/docsync/internal/usecase/reconcile"
	"github.com/kailas-cloud/docsync/internal/version"
)

type mockImporter struct {
	res     dombatch.Result
	err     error
	gotPath string
	gotSep  string
}

func (m *mockImporter) IngestPath(_ context.Context, path, separator string) (dombatch.Result, error) {
	m.gotPath, m.gotSep = path, separator
	return m.res, m.err
}

type mockReconciler struct {
	stats reconcileuc.Stats
	err   error
	calls int
}

func (m *mockReconciler) RunOnce(context.Context) (reconcileuc.Stats, error) {
	m.calls++
	return m.stats, m.err
}

func setupTest(t *testing.T, imp *mockImporter, rec *mockReconciler) *bytes.Buffer {
	t.Helper()
	oldImp, oldRec := importer, reconciler
	importer, reconciler = imp, rec

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		importer, reconciler = oldImp, oldRec
		importFile, importSeparator = "", ""
		rootCmd.SetArgs(nil)
	})
	return buf
}

func TestImportCmd(t *testing.T) {
	imp := &mockImporter{res: dombatch.NewResult(5, 2)}
	buf := setupTest(t, imp, &mockReconciler{})

	rootCmd.SetArgs([]string{"import", "--file", "posts.csv", "--separator", ";"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "posts.csv", imp.gotPath)
	assert.Equal(t, ";", imp.gotSep)
	assert.Contains(t, buf.String(), "Imported 5 documents (2 index failures).")
	assert.Contains(t, buf.String(), "docsctl reconcile")
}

func TestImportCmd_NothingToImport(t *testing.T) {
	buf := setupTest(t, &mockImporter{err: domain.ErrNothingToAdd}, &mockReconciler{})

	rootCmd.SetArgs([]string{"import", "-f", "empty.csv"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Nothing to import.")
}

func TestImportCmd_Error(t *testing.T) {
	setupTest(t, &mockImporter{err: &domain.RowError{Row: 3, Err: errors.New("bad date")}}, &mockReconciler{})

	rootCmd.SetArgs([]string{"import", "-f", "posts.csv"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import failed")
}

func TestReconcileCmd(t *testing.T) {
	rec := &mockReconciler{stats: reconcileuc.Stats{Scanned: 10, Reindexed: 2, Orphans: 1}}
	buf := setupTest(t, &mockImporter{}, rec)

	rootCmd.SetArgs([]string{"reconcile"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, rec.calls)
	assert.Contains(t, buf.String(), "Scanned 10, reindexed 2, removed 1 orphans, 0 errors.")
}

func TestReconcileCmd_Error(t *testing.T) {
	setupTest(t, &mockImporter{}, &mockReconciler{err: errors.New("index down")})

	rootCmd.SetArgs([]string{"reconcile"})
	assert.Error(t, rootCmd.Execute())
}

func TestVersionCmd(t *testing.T) {
	prev := version.Version
	version.Version = "test-1.0.0"
	defer func() { version.Version = prev }()

	buf := setupTest(t, &mockImporter{}, &mockReconciler{})
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "docsync test-1.0.0")
}
