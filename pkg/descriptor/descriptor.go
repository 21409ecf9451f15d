// Package descriptor materializes and reads back the JSON descriptors kept in
// the state directory. The update-function-code descriptor is the only state
// shared between commands: test reads the function name out of it.
package descriptor

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/render"
	"github.com/serverlessresearch/alcl/pkg/skill"
)

const (
	CreateFile  = "create-function.json"
	UpdateFile  = "update-function-code.json"
	PayloadFile = "launch.json"
	OutputFile  = "test.json"
	ArchiveFile = "lambda.zip"

	DefaultUserID = "user123456"

	// ISO-8601 in UTC with millisecond precision
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Files lists the descriptors Materialize renders, in render order.
var Files = []string{CreateFile, UpdateFile, PayloadFile}

// Set describes one materialization run.
type Set struct {
	RunID     string
	Timestamp string
	Paths     []string
}

type Materializer struct {
	Renderer *render.Renderer
	UserID   string
	// Now and Entropy default to time.Now and crypto/rand.
	Now     func() time.Time
	Entropy io.Reader
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Materializer) entropy() io.Reader {
	if m.Entropy != nil {
		return m.Entropy
	}
	return rand.Reader
}

// Vars builds the template variables for one run. name must already be
// normalized.
func (m *Materializer) Vars(name string) (map[string]string, error) {
	runID, err := skill.NewRunID(m.entropy())
	if err != nil {
		return nil, err
	}
	userID := m.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	return map[string]string{
		"skillName": name,
		"uuid":      runID,
		"userId":    userID,
		"timestamp": m.now().UTC().Format(TimestampLayout),
	}, nil
}

// Materialize renders every descriptor into stateDir, creating it if needed.
// All descriptors of one call share a single run identifier and timestamp.
func (m *Materializer) Materialize(stateDir, name string) (*Set, error) {
	if err := os.MkdirAll(stateDir, 0775); err != nil {
		return nil, deploy.Wrap(deploy.WriteFailure, err, "cannot create state directory "+stateDir)
	}

	vars, err := m.Vars(name)
	if err != nil {
		return nil, err
	}

	set := &Set{RunID: vars["uuid"], Timestamp: vars["timestamp"]}
	for _, f := range Files {
		dst := filepath.Join(stateDir, f)
		if err := m.Renderer.Render(f, vars, dst); err != nil {
			return nil, err
		}
		set.Paths = append(set.Paths, dst)
	}
	return set, nil
}

// CreateFunction mirrors the fields of create-function.json alcl relies on.
type CreateFunction struct {
	FunctionName string `json:"FunctionName"`
	Description  string `json:"Description,omitempty"`
	Runtime      string `json:"Runtime,omitempty"`
	Role         string `json:"Role,omitempty"`
	Handler      string `json:"Handler,omitempty"`
	Timeout      int64  `json:"Timeout,omitempty"`
	MemorySize   int64  `json:"MemorySize,omitempty"`
	Publish      bool   `json:"Publish,omitempty"`
}

type UpdateFunctionCode struct {
	FunctionName string `json:"FunctionName"`
	Publish      bool   `json:"Publish,omitempty"`
}

func load(path string, v interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(data, v), "cannot decode "+path)
}

func LoadCreate(path string) (*CreateFunction, error) {
	var d CreateFunction
	if err := load(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func LoadUpdate(path string) (*UpdateFunctionCode, error) {
	var d UpdateFunctionCode
	if err := load(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadFunctionName returns the function name persisted by setup or init.
func ReadFunctionName(stateDir string) (string, error) {
	path := filepath.Join(stateDir, UpdateFile)
	d, err := LoadUpdate(path)
	if err != nil {
		return "", deploy.Wrap(deploy.FunctionNameNotFound, err, "cannot read function name from "+path+"; run setup first")
	}
	if d.FunctionName == "" {
		return "", deploy.New(deploy.FunctionNameNotFound, "no FunctionName in "+path+"; run setup first")
	}
	return d.FunctionName, nil
}
