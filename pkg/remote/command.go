package remote

import (
	"github.com/serverlessresearch/alcl/pkg/shell"
)

type flag struct {
	name  string
	value string
}

// CommandBuilder assembles "aws lambda <subcommand>" invocations. Flags keep
// the order they were added in and every value is a separate argv entry.
type CommandBuilder struct {
	exe        string
	subcommand string
	flags      []flag
	args       []string
}

func NewCommandBuilder(exe, subcommand string) *CommandBuilder {
	if exe == "" {
		exe = "aws"
	}
	return &CommandBuilder{exe: exe, subcommand: subcommand}
}

func (b *CommandBuilder) Flag(name, value string) *CommandBuilder {
	b.flags = append(b.flags, flag{name, value})
	return b
}

// Arg appends a positional argument, emitted after all flags.
func (b *CommandBuilder) Arg(value string) *CommandBuilder {
	b.args = append(b.args, value)
	return b
}

// Options appends --region and, when set, --profile.
func (b *CommandBuilder) Options(opts Options) *CommandBuilder {
	b.Flag("--region", opts.region())
	if opts.Profile != "" {
		b.Flag("--profile", opts.Profile)
	}
	return b
}

func (b *CommandBuilder) Build(dir string) *shell.Command {
	args := []string{"lambda", b.subcommand}
	for _, f := range b.flags {
		args = append(args, f.name, f.value)
	}
	args = append(args, b.args...)
	return shell.NewCommand(dir, b.exe, args...)
}
