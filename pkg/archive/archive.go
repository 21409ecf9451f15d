// Package archive bundles a skill's working directory into the zip file that
// is uploaded to Lambda.
package archive

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/shell"
	"github.com/sirupsen/logrus"
)

const FileName = "lambda.zip"

type Builder interface {
	// Build archives every file under workDir except those under stateDir and
	// writes the result to stateDir/lambda.zip, replacing any previous
	// archive. Entry names are relative to workDir.
	// Returns: path of the archive
	Build(workDir, stateDir string) (string, error)
}

// Path returns where Build leaves the archive for stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// prepare makes sure the archive's directory exists and that no previous
// archive is left for zip to update in place.
func prepare(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return deploy.Wrap(deploy.ArchiveFailure, err, "cannot create "+filepath.Dir(path))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return deploy.Wrap(deploy.ArchiveFailure, err, "cannot remove previous archive "+path)
	}
	return nil
}

// ZipCommand shells out to Info-ZIP.
type ZipCommand struct {
	Exe    string
	Runner shell.Runner
	Logger logrus.FieldLogger
}

func NewZipCommand(exe string, runner shell.Runner, logger logrus.FieldLogger) *ZipCommand {
	if exe == "" {
		exe = "zip"
	}
	return &ZipCommand{Exe: exe, Runner: runner, Logger: logger}
}

// Command returns the zip invocation Build runs.
func (z *ZipCommand) Command(workDir, stateDir string) (*shell.Command, error) {
	rel, err := filepath.Rel(workDir, stateDir)
	if err != nil {
		return nil, errors.Wrap(err, "state directory must be inside the working directory")
	}
	rel = filepath.ToSlash(rel)
	// -X drops extra file attributes (uid/gid, atime) so repeated builds of an
	// unchanged tree agree.
	return shell.NewCommand(workDir, z.Exe, "-r", "-X", rel+"/"+FileName, ".", "-x", rel+"/*"), nil
}

func (z *ZipCommand) Build(workDir, stateDir string) (string, error) {
	cmd, err := z.Command(workDir, stateDir)
	if err != nil {
		return "", deploy.Wrap(deploy.ArchiveFailure, err, "cannot build archive")
	}

	dst := Path(stateDir)
	if err := prepare(dst); err != nil {
		return "", err
	}

	z.Logger.Info(cmd.String())
	stdout, stderr, err := z.Runner.Run(cmd)
	if err != nil {
		return "", &deploy.Error{
			Kind:   deploy.ArchiveFailure,
			Msg:    "zip failed",
			Cmd:    cmd.String(),
			Stdout: stdout,
			Stderr: stderr,
			Err:    err,
		}
	}
	z.Logger.Debug(string(stdout))
	return dst, nil
}
