// Synchronous execution of child processes. Every external tool alcl drives
// (zip, npm, node, the aws CLI) goes through a Runner so the pipeline can be
// exercised in tests without the tools being installed.
package shell

import (
	"bytes"
	"os/exec"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// A Command is a structured argv. Arguments are passed to the child as-is and
// never interpreted by a shell.
type Command struct {
	Dir  string
	Exe  string
	Args []string
}

func NewCommand(dir, exe string, args ...string) *Command {
	return &Command{Dir: dir, Exe: exe, Args: args}
}

var safeArg = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if safeArg.MatchString(s) {
		return s
	}
	return "'" + strings.Replace(s, "'", `'"'"'`, -1) + "'"
}

// String renders the command line the way an operator would type it.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Exe))
	for _, arg := range c.Args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

type Runner interface {
	// Run blocks until the child exits. A non-zero exit is reported as an
	// error; stdout and stderr are returned in either case.
	Run(cmd *Command) (stdout []byte, stderr []byte, err error)
}

// Exec runs commands with os/exec. There is no timeout: a child that never
// exits blocks the caller forever.
type Exec struct{}

func (Exec) Run(c *Command) ([]byte, []byte, error) {

	log.Debugf("exec %s (dir %q)", c, c.Dir)

	cmd := exec.Command(c.Exe, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
