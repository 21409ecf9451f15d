package remote

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/shell"
	"github.com/sirupsen/logrus"
)

// CLI runs the aws command line tool. Paths are rendered relative to Dir
// where possible so the logged command lines can be pasted into a shell
// opened in the skill directory.
type CLI struct {
	Exe    string
	Dir    string
	Runner shell.Runner
	Logger logrus.FieldLogger
}

func NewCLI(exe, dir string, runner shell.Runner, logger logrus.FieldLogger) *CLI {
	return &CLI{Exe: exe, Dir: dir, Runner: runner, Logger: logger}
}

func (c *CLI) rel(path string) string {
	if c.Dir == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(c.Dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (c *CLI) run(b *CommandBuilder) ([]byte, error) {
	cmd := b.Build(c.Dir)
	c.Logger.Info(cmd.String())

	stdout, stderr, err := c.Runner.Run(cmd)
	if err != nil {
		return stdout, &deploy.Error{
			Kind:   deploy.RemoteCallFailure,
			Msg:    "aws lambda " + b.subcommand + " failed",
			Cmd:    cmd.String(),
			Stdout: stdout,
			Stderr: stderr,
			Err:    err,
		}
	}
	return stdout, nil
}

// CreateFunction passes the function name on the command line because the
// CLI ignores FunctionName and ZipFile in --cli-input-json for this call.
func (c *CLI) CreateFunction(req CreateRequest, opts Options) ([]byte, error) {
	b := NewCommandBuilder(c.Exe, "create-function").
		Flag("--function-name", req.Name).
		Flag("--runtime", req.Runtime).
		Flag("--role", req.Role).
		Flag("--handler", req.Handler).
		Flag("--zip-file", "fileb://"+c.rel(req.ArchivePath)).
		Flag("--cli-input-json", "file://"+c.rel(req.DescriptorPath)).
		Options(opts)
	return c.run(b)
}

func (c *CLI) UpdateFunctionCode(archivePath, descriptorPath string, opts Options) ([]byte, error) {
	b := NewCommandBuilder(c.Exe, "update-function-code").
		Flag("--zip-file", "fileb://"+c.rel(archivePath)).
		Flag("--cli-input-json", "file://"+c.rel(descriptorPath)).
		Options(opts)
	return c.run(b)
}

func (c *CLI) Invoke(functionName, payload, outputPath string, opts Options) (*InvokeResult, error) {
	b := NewCommandBuilder(c.Exe, "invoke").
		Flag("--function-name", functionName).
		Flag("--payload", CompactPayload(payload)).
		Flag("--log-type", "Tail").
		Options(opts).
		Arg(c.rel(outputPath))

	stdout, err := c.run(b)
	if err != nil {
		return nil, err
	}

	var resp invokeResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return nil, &deploy.Error{
			Kind:   deploy.InvalidRemoteResponse,
			Msg:    "cannot parse invoke response",
			Cmd:    b.Build(c.Dir).String(),
			Stdout: stdout,
			Err:    err,
		}
	}

	logText, err := decodeLog(resp.LogResult, stdout)
	if err != nil {
		return nil, err
	}
	output, err := readOutput(outputPath)
	if err != nil {
		return nil, err
	}

	return &InvokeResult{
		Log:           logText,
		Output:        output,
		FunctionError: resp.FunctionError,
		StatusCode:    resp.StatusCode,
	}, nil
}
