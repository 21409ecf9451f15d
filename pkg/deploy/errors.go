// Error kinds shared by every stage of the deployment pipeline. Each stage
// returns a *Error so the command layer can report the failing command and
// whatever the child process printed without having to know which stage
// produced it.
package deploy

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	MissingRole
	InvalidName
	TemplateMissing
	WriteFailure
	ArchiveFailure
	DependencyInstallFailure
	RemoteCallFailure
	InvalidRemoteResponse
	FunctionNameNotFound
	PayloadNotFound
	IntrospectionFailure
)

var kindNames = map[Kind]string{
	Unknown:                  "Unknown",
	MissingRole:              "MissingRole",
	InvalidName:              "InvalidName",
	TemplateMissing:          "TemplateMissing",
	WriteFailure:             "WriteFailure",
	ArchiveFailure:           "ArchiveFailure",
	DependencyInstallFailure: "DependencyInstallFailure",
	RemoteCallFailure:        "RemoteCallFailure",
	InvalidRemoteResponse:    "InvalidRemoteResponse",
	FunctionNameNotFound:     "FunctionNameNotFound",
	PayloadNotFound:          "PayloadNotFound",
	IntrospectionFailure:     "IntrospectionFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Error struct {
	Kind Kind
	// Human readable description of the failed step
	Msg string
	// Command line that was attempted, if any
	Cmd string
	// Output captured from the child process. Reported verbatim.
	Stdout []byte
	Stderr []byte
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Cmd != "" {
		b.WriteString("\ncommand: ")
		b.WriteString(e.Cmd)
	}
	if len(e.Stdout) > 0 {
		b.WriteString("\nstdout:\n")
		b.Write(e.Stdout)
	}
	if len(e.Stderr) > 0 {
		b.WriteString("\nstderr:\n")
		b.Write(e.Stderr)
	}
	return b.String()
}

// Cause lets errors.Cause reach the underlying error.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error found in err's chain, or Unknown.
func KindOf(err error) Kind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
