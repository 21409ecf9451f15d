package archive_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/serverlessresearch/alcl/pkg/archive"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/shell"
	"github.com/serverlessresearch/alcl/pkg/shell/shelltest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree lays out a small skill project with a populated state directory.
func makeTree(t *testing.T) (workDir, stateDir string) {
	workDir = t.TempDir()
	stateDir = filepath.Join(workDir, "aws")
	files := map[string]string{
		"index.js":                      "module.exports = {};\n",
		"package.json":                  "{}\n",
		"awsome.js":                     "// not state\n",
		"lib/util.js":                   "exports.x = 1;\n",
		"node_modules/alexa-app/app.js": "// dependency\n",
		"aws/create-function.json":      "{}\n",
		"aws/update-function-code.json": "{}\n",
		"aws/lambda.zip":                "stale archive",
		"aws/nested/old.zip":            "older archive",
	}
	for name, content := range files {
		path := filepath.Join(workDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	}
	return workDir, stateDir
}

func entries(t *testing.T, path string) []string {
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestNativeExcludesStateDir(t *testing.T) {

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()

	path, err := (&archive.Native{Logger: logger}).Build(workDir, stateDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stateDir, archive.FileName), path)

	names := entries(t, path)
	for _, name := range names {
		assert.False(t, name == "aws/" || strings.HasPrefix(name, "aws/"), "archive contains state entry %s", name)
	}

	files := []string{}
	for _, name := range names {
		if !strings.HasSuffix(name, "/") {
			files = append(files, name)
		}
	}
	assert.Equal(t, []string{"awsome.js", "index.js", "lib/util.js", "node_modules/alexa-app/app.js", "package.json"}, files)
	assert.Contains(t, names, "lib/")
}

func TestNativeIsDeterministic(t *testing.T) {

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()
	builder := &archive.Native{Logger: logger}

	path, err := builder.Build(workDir, stateDir)
	require.NoError(t, err)
	first, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(workDir, "index.js"), later, later))

	path, err = builder.Build(workDir, stateDir)
	require.NoError(t, err)
	second, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "archives differ between identical builds")
}

func TestNativeRoundTrip(t *testing.T) {

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()

	path, err := (&archive.Native{Logger: logger}).Build(workDir, stateDir)
	require.NoError(t, err)

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		got, err := ioutil.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		want, err := ioutil.ReadFile(filepath.Join(workDir, filepath.FromSlash(f.Name)))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), f.Name)
	}
}

func TestZipCommand(t *testing.T) {

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()
	rec := shelltest.NewRecorder()

	path, err := archive.NewZipCommand("", rec, logger).Build(workDir, stateDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stateDir, archive.FileName), path)

	cmds := rec.Ran("zip")
	require.Len(t, cmds, 1)
	assert.Equal(t, workDir, cmds[0].Dir)
	assert.Equal(t, []string{"-r", "-X", "aws/lambda.zip", ".", "-x", "aws/*"}, cmds[0].Args)

	// The stale archive is removed so zip rebuilds instead of updating.
	_, err = os.Stat(filepath.Join(stateDir, archive.FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestZipCommandFailure(t *testing.T) {

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()
	rec := shelltest.NewRecorder().On("zip", shelltest.Response{
		Stdout: []byte("zip warning: name not matched\n"),
		Stderr: []byte("zip error: Nothing to do!\n"),
		Err:    errors.New("exit status 12"),
	})

	_, err := archive.NewZipCommand("zip", rec, logger).Build(workDir, stateDir)
	require.Error(t, err)
	assert.True(t, deploy.Is(err, deploy.ArchiveFailure), "got %v", err)
	assert.Contains(t, err.Error(), "zip -r -X aws/lambda.zip . -x 'aws/*'")
	assert.Contains(t, err.Error(), "zip error: Nothing to do!\n")
	assert.Contains(t, err.Error(), "zip warning: name not matched\n")
}

func TestZipCommandWithInfoZip(t *testing.T) {

	if _, err := exec.LookPath("zip"); err != nil {
		t.Skip("zip not installed")
	}

	workDir, stateDir := makeTree(t)
	logger, _ := test.NewNullLogger()

	path, err := archive.NewZipCommand("zip", shell.Exec{}, logger).Build(workDir, stateDir)
	require.NoError(t, err)

	for _, name := range entries(t, path) {
		assert.False(t, strings.HasPrefix(name, "aws/"), "archive contains state entry %s", name)
	}
	assert.Contains(t, entries(t, path), "index.js")
}

func TestNativeFollowsLinkedDirectory(t *testing.T) {

	workDir, stateDir := makeTree(t)
	linked := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(linked, "lib"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(linked, "index.js"), []byte("module.exports = 'linked';\n"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(linked, "lib", "helper.js"), []byte("exports.y = 2;\n"), 0644))
	if err := os.Symlink(linked, filepath.Join(workDir, "node_modules", "linked")); err != nil {
		t.Skip("symlinks not supported: ", err)
	}
	logger, _ := test.NewNullLogger()

	path, err := (&archive.Native{Logger: logger}).Build(workDir, stateDir)
	require.NoError(t, err)

	names := entries(t, path)
	assert.Contains(t, names, "node_modules/linked/")
	assert.Contains(t, names, "node_modules/linked/index.js")
	assert.Contains(t, names, "node_modules/linked/lib/")
	assert.Contains(t, names, "node_modules/linked/lib/helper.js")

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name != "node_modules/linked/index.js" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		got, err := ioutil.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "module.exports = 'linked';\n", string(got))
	}
}

func TestNativeSkipsBrokenAndLoopingLinks(t *testing.T) {

	workDir, stateDir := makeTree(t)
	if err := os.Symlink(filepath.Join(workDir, "missing.js"), filepath.Join(workDir, "dangling.js")); err != nil {
		t.Skip("symlinks not supported: ", err)
	}
	require.NoError(t, os.Symlink(workDir, filepath.Join(workDir, "lib", "loop")))
	logger, hook := test.NewNullLogger()

	path, err := (&archive.Native{Logger: logger}).Build(workDir, stateDir)
	require.NoError(t, err)

	names := entries(t, path)
	assert.NotContains(t, names, "dangling.js")
	assert.Contains(t, names, "lib/loop/")
	for _, name := range names {
		assert.False(t, strings.HasPrefix(name, "lib/loop/") && name != "lib/loop/", "archive descended into loop: %s", name)
	}

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}
