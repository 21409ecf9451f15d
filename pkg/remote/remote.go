// Package remote drives the Lambda function lifecycle: create, update code and
// invoke. Two backends implement Invoker, one shelling out to the aws CLI and
// one calling the Lambda API through aws-sdk-go.
package remote

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"strings"
	"unicode"

	"github.com/serverlessresearch/alcl/pkg/deploy"
)

const DefaultRegion = "us-east-1"

// Options are passed through to the platform unvalidated.
type Options struct {
	Region string
	// Named credential profile; empty means the default credentials chain.
	Profile string
}

func (o Options) region() string {
	if o.Region == "" {
		return DefaultRegion
	}
	return o.Region
}

type CreateRequest struct {
	Name    string
	Role    string
	Handler string
	Runtime string
	// Archive to upload and the create-function descriptor
	ArchivePath    string
	DescriptorPath string
}

type InvokeResult struct {
	// Decoded execution log tail
	Log string
	// Function response read back from the output file, indented
	Output []byte
	// Set when the function itself failed (e.g. "Unhandled")
	FunctionError string
	StatusCode    int64
}

type Invoker interface {
	CreateFunction(req CreateRequest, opts Options) ([]byte, error)
	UpdateFunctionCode(archivePath, descriptorPath string, opts Options) ([]byte, error)
	// Invoke the function with payload, leaving the raw response in outputPath.
	Invoke(functionName, payload, outputPath string, opts Options) (*InvokeResult, error)
}

// CompactPayload removes every whitespace character, newlines included, so
// the payload survives as a single command-line argument.
func CompactPayload(payload string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)
}

// invokeResponse is what "aws lambda invoke" prints on stdout.
type invokeResponse struct {
	StatusCode      int64  `json:"StatusCode"`
	LogResult       string `json:"LogResult"`
	FunctionError   string `json:"FunctionError"`
	ExecutedVersion string `json:"ExecutedVersion"`
}

func decodeLog(logResult string, raw []byte) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(logResult)
	if err != nil {
		return "", &deploy.Error{Kind: deploy.InvalidRemoteResponse, Msg: "LogResult is not base64", Stdout: raw, Err: err}
	}
	return string(decoded), nil
}

// readOutput loads the function response the platform left in outputPath and
// indents it.
func readOutput(outputPath string) ([]byte, error) {
	data, err := ioutil.ReadFile(outputPath)
	if err != nil {
		return nil, deploy.Wrap(deploy.InvalidRemoteResponse, err, "cannot read invocation output "+outputPath)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return nil, &deploy.Error{Kind: deploy.InvalidRemoteResponse, Msg: "invocation output is not JSON", Stdout: data, Err: err}
	}
	return pretty.Bytes(), nil
}
