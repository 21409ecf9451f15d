package remote

import (
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/descriptor"
	"github.com/sirupsen/logrus"
)

// SDK talks to the Lambda API directly. The descriptors play the role the
// --cli-input-json files play for the CLI backend.
type SDK struct {
	// Optional endpoint override, e.g. a local Lambda emulator
	Endpoint string
	Logger   logrus.FieldLogger
	// NewClient defaults to a session-backed lambda client.
	NewClient func(opts Options) (lambdaiface.LambdaAPI, error)
}

func NewSDK(endpoint string, logger logrus.FieldLogger) *SDK {
	s := &SDK{Endpoint: endpoint, Logger: logger}
	s.NewClient = s.sessionClient
	return s
}

func (s *SDK) sessionClient(opts Options) (lambdaiface.LambdaAPI, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, deploy.Wrap(deploy.RemoteCallFailure, err, "cannot create AWS session")
	}
	cfg := &aws.Config{Region: aws.String(opts.region())}
	if s.Endpoint != "" {
		cfg.Endpoint = aws.String(s.Endpoint)
	}
	return lambda.New(sess, cfg), nil
}

func (s *SDK) client(opts Options) (lambdaiface.LambdaAPI, error) {
	if s.NewClient == nil {
		return s.sessionClient(opts)
	}
	return s.NewClient(opts)
}

func callFailed(op string, err error) error {
	if aerr, ok := err.(awserr.Error); ok {
		return &deploy.Error{
			Kind:   deploy.RemoteCallFailure,
			Msg:    "lambda " + op + " failed: " + aerr.Code(),
			Stderr: []byte(aerr.Message()),
			Err:    err,
		}
	}
	return deploy.Wrap(deploy.RemoteCallFailure, err, "lambda "+op+" failed")
}

func readArchive(path string) ([]byte, error) {
	zipDat, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, deploy.Wrap(deploy.ArchiveFailure, err, "cannot read archive "+path)
	}
	return zipDat, nil
}

func (s *SDK) CreateFunction(req CreateRequest, opts Options) ([]byte, error) {
	desc, err := descriptor.LoadCreate(req.DescriptorPath)
	if err != nil {
		return nil, deploy.Wrap(deploy.RemoteCallFailure, err, "cannot load create-function descriptor")
	}
	zipDat, err := readArchive(req.ArchivePath)
	if err != nil {
		return nil, err
	}

	input := &lambda.CreateFunctionInput{
		Code:         &lambda.FunctionCode{ZipFile: zipDat},
		FunctionName: aws.String(req.Name),
		Handler:      aws.String(req.Handler),
		Role:         aws.String(req.Role),
		Runtime:      aws.String(req.Runtime),
		Publish:      aws.Bool(desc.Publish),
	}
	if desc.Description != "" {
		input.Description = aws.String(desc.Description)
	}
	if desc.MemorySize > 0 {
		input.MemorySize = aws.Int64(desc.MemorySize)
	}
	if desc.Timeout > 0 {
		input.Timeout = aws.Int64(desc.Timeout)
	}

	client, err := s.client(opts)
	if err != nil {
		return nil, err
	}
	s.Logger.WithField("function", req.Name).Info("lambda CreateFunction")
	result, err := client.CreateFunction(input)
	if err != nil {
		return nil, callFailed("CreateFunction", err)
	}
	return []byte(result.String()), nil
}

func (s *SDK) UpdateFunctionCode(archivePath, descriptorPath string, opts Options) ([]byte, error) {
	desc, err := descriptor.LoadUpdate(descriptorPath)
	if err != nil {
		return nil, deploy.Wrap(deploy.RemoteCallFailure, err, "cannot load update-function-code descriptor")
	}
	if desc.FunctionName == "" {
		return nil, deploy.New(deploy.FunctionNameNotFound, "no FunctionName in "+descriptorPath)
	}
	zipDat, err := readArchive(archivePath)
	if err != nil {
		return nil, err
	}

	client, err := s.client(opts)
	if err != nil {
		return nil, err
	}
	s.Logger.WithField("function", desc.FunctionName).Info("lambda UpdateFunctionCode")
	result, err := client.UpdateFunctionCode(&lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(desc.FunctionName),
		ZipFile:      zipDat,
		Publish:      aws.Bool(desc.Publish),
	})
	if err != nil {
		return nil, callFailed("UpdateFunctionCode", err)
	}
	return []byte(result.String()), nil
}

func (s *SDK) Invoke(functionName, payload, outputPath string, opts Options) (*InvokeResult, error) {
	client, err := s.client(opts)
	if err != nil {
		return nil, err
	}

	s.Logger.WithField("function", functionName).Info("lambda Invoke")
	out, err := client.Invoke(&lambda.InvokeInput{
		FunctionName: aws.String(functionName),
		Payload:      []byte(CompactPayload(payload)),
		LogType:      aws.String(lambda.LogTypeTail),
	})
	if err != nil {
		return nil, callFailed("Invoke", err)
	}

	if err := ioutil.WriteFile(outputPath, out.Payload, 0644); err != nil {
		return nil, deploy.Wrap(deploy.InvalidRemoteResponse, err, "cannot write invocation output "+outputPath)
	}

	result := &InvokeResult{
		FunctionError: aws.StringValue(out.FunctionError),
		StatusCode:    aws.Int64Value(out.StatusCode),
	}
	if out.LogResult != nil {
		if result.Log, err = decodeLog(*out.LogResult, []byte(out.String())); err != nil {
			return nil, err
		}
	}
	if result.Output, err = readOutput(outputPath); err != nil {
		return nil, err
	}
	return result, nil
}

