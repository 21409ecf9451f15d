package render_test

import (
	"encoding/json"
	"io/fs"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/render"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(files fstest.MapFS) (*render.Renderer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return &render.Renderer{Sources: []fs.FS{files}, Logger: logger}, hook
}

func TestRenderLiteral(t *testing.T) {

	literal := "no variables here\n  $notOne {nor} $ {this} ${}\n"
	r, hook := newRenderer(fstest.MapFS{"plain.txt": {Data: []byte(literal)}})

	dst := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, r.Render("plain.txt", map[string]string{"skillName": "x"}, dst))

	out, err := ioutil.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, literal, string(out))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "copy templates/plain.txt to "+dst, hook.LastEntry().Message)
}

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {

	r, _ := newRenderer(fstest.MapFS{
		"t.json": {Data: []byte(`{"a": "${skillName}", "b": "${skillName}-${uuid}", "c": "${timestamp}"}`)},
	})
	vars := map[string]string{
		"skillName": "MySkill",
		"uuid":      "0f8b1f7e-5c8e-4b51-9a5d-0cdb2a1f7e11",
		"timestamp": "2026-10-19T12:00:00.000Z",
		"userId":    "unused",
	}

	dst := filepath.Join(t.TempDir(), "t.json")
	require.NoError(t, r.Render("t.json", vars, dst))

	out, err := ioutil.ReadFile(dst)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "${")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "MySkill", decoded["a"])
	assert.Equal(t, "MySkill-0f8b1f7e-5c8e-4b51-9a5d-0cdb2a1f7e11", decoded["b"])
	assert.Equal(t, "2026-10-19T12:00:00.000Z", decoded["c"])
}

func TestRenderOverwrites(t *testing.T) {

	r, _ := newRenderer(fstest.MapFS{"f": {Data: []byte("new")}})
	dst := filepath.Join(t.TempDir(), "f")
	require.NoError(t, ioutil.WriteFile(dst, []byte("old content that is longer"), 0644))

	require.NoError(t, r.Render("f", nil, dst))
	out, err := ioutil.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(out))
}

func TestRenderUnknownVariableLeftVerbatim(t *testing.T) {

	r, hook := newRenderer(fstest.MapFS{"f": {Data: []byte("${skillName} ${missing}")}})
	dst := filepath.Join(t.TempDir(), "f")

	require.NoError(t, r.Render("f", map[string]string{"skillName": "S"}, dst))
	out, err := ioutil.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "S ${missing}", string(out))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRenderTemplateMissing(t *testing.T) {

	r, _ := newRenderer(fstest.MapFS{})
	dst := filepath.Join(t.TempDir(), "nope")

	err := r.Render("nope.json", nil, dst)
	assert.True(t, deploy.Is(err, deploy.TemplateMissing), "got %v", err)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderWriteFailure(t *testing.T) {

	r, _ := newRenderer(fstest.MapFS{"f": {Data: []byte("x")}})
	dst := filepath.Join(t.TempDir(), "no-such-dir", "f")

	err := r.Render("f", nil, dst)
	assert.True(t, deploy.Is(err, deploy.WriteFailure), "got %v", err)
}

func TestOverrideDirShadowsBuiltin(t *testing.T) {

	override := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(override, "launch.json"), []byte(`{"custom": "${uuid}"}`), 0644))

	logger, _ := test.NewNullLogger()
	r := render.New(logger, override)
	dir := t.TempDir()

	require.NoError(t, r.Render("launch.json", map[string]string{"uuid": "u"}, filepath.Join(dir, "launch.json")))
	out, err := ioutil.ReadFile(filepath.Join(dir, "launch.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"custom": "u"}`, string(out))

	// Templates absent from the override still come from the builtin set.
	require.NoError(t, r.Render("update-function-code.json", map[string]string{"skillName": "S"}, filepath.Join(dir, "u.json")))
}

func TestBuiltinTemplates(t *testing.T) {

	builtin := render.Builtin()
	for _, name := range []string{"create-function.json", "update-function-code.json", "launch.json", "index.js", "package.json", ".gitignore"} {
		_, err := fs.Stat(builtin, name)
		assert.NoError(t, err, name)
	}

	vars := map[string]string{"skillName": "S", "uuid": "u", "userId": "user", "timestamp": "ts"}
	for _, name := range []string{"create-function.json", "update-function-code.json", "launch.json", "package.json"} {
		data, err := fs.ReadFile(builtin, name)
		require.NoError(t, err)
		out, missing := render.Expand(data, vars)
		assert.Empty(t, missing, name)
		assert.True(t, json.Valid(out), "%s does not render to valid JSON", name)
	}
}
