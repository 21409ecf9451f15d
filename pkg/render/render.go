// Package render turns the built-in (or operator supplied) templates into
// files on disk.
package render

import (
	"embed"
	"io/fs"
	"io/ioutil"
	"os"
	"regexp"

	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*
var builtin embed.FS

// Builtin returns the templates compiled into the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

var variable = regexp.MustCompile(`\$\{(\w+)\}`)

// Expand substitutes every ${name} in text. Values are inserted raw. A
// reference to a name missing from vars is left as-is and reported in missing.
func Expand(text []byte, vars map[string]string) (out []byte, missing []string) {
	out = variable.ReplaceAllFunc(text, func(ref []byte) []byte {
		name := string(ref[2 : len(ref)-1])
		if val, ok := vars[name]; ok {
			return []byte(val)
		}
		missing = append(missing, name)
		return ref
	})
	return out, missing
}

type Renderer struct {
	// Searched in order; the first source holding a template wins.
	Sources []fs.FS
	Logger  logrus.FieldLogger
}

// New returns a Renderer over the built-in templates, optionally shadowed by
// the templates found in overrideDir.
func New(logger logrus.FieldLogger, overrideDir string) *Renderer {
	r := &Renderer{Logger: logger}
	if overrideDir != "" {
		r.Sources = append(r.Sources, os.DirFS(overrideDir))
	}
	r.Sources = append(r.Sources, Builtin())
	return r
}

func (r *Renderer) read(name string) ([]byte, error) {
	var lastErr error = fs.ErrNotExist
	for _, src := range r.Sources {
		data, err := fs.ReadFile(src, name)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Render writes template name, with vars substituted, to dst. The directory
// containing dst must already exist.
func (r *Renderer) Render(name string, vars map[string]string, dst string) error {
	tmpl, err := r.read(name)
	if err != nil {
		return deploy.Wrap(deploy.TemplateMissing, err, "cannot read template "+name)
	}

	r.Logger.Infof("copy templates/%s to %s", name, dst)

	out, missing := Expand(tmpl, vars)
	for _, m := range missing {
		r.Logger.WithField("template", name).Warnf("no value for ${%s}, left unexpanded", m)
	}

	if err := ioutil.WriteFile(dst, out, 0644); err != nil {
		return deploy.Wrap(deploy.WriteFailure, err, "cannot write "+dst)
	}
	return nil
}
