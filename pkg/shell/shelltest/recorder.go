// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"github.com/serverlessresearch/alcl/pkg/shell"
)

// A Response is what the Recorder returns for one command. Hook, when set,
// runs before the response is returned, e.g. to create the file a real tool
// would have written.
type Response struct {
	Stdout []byte
	Stderr []byte
	Err    error
	Hook   func(cmd *shell.Command)
}

// Recorder remembers every command it is asked to run. Responses are keyed by
// executable; executables without a response succeed with no output.
type Recorder struct {
	Commands  []*shell.Command
	Responses map[string]Response
}

func NewRecorder() *Recorder {
	return &Recorder{Responses: make(map[string]Response)}
}

func (r *Recorder) On(exe string, resp Response) *Recorder {
	r.Responses[exe] = resp
	return r
}

func (r *Recorder) Run(cmd *shell.Command) ([]byte, []byte, error) {
	r.Commands = append(r.Commands, cmd)
	resp := r.Responses[cmd.Exe]
	if resp.Hook != nil {
		resp.Hook(cmd)
	}
	return resp.Stdout, resp.Stderr, resp.Err
}

// Ran returns the commands run for the given executable, in order.
func (r *Recorder) Ran(exe string) []*shell.Command {
	var cmds []*shell.Command
	for _, c := range r.Commands {
		if c.Exe == exe {
			cmds = append(cmds, c)
		}
	}
	return cmds
}
