package skillmgr

import (
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/serverlessresearch/alcl/pkg/descriptor"
	"github.com/serverlessresearch/alcl/pkg/remote"
	"github.com/serverlessresearch/alcl/pkg/shell"
	"github.com/serverlessresearch/alcl/pkg/skill"
)

// Files rendered into the skill directory by Init.
var skeleton = []string{"package.json", "index.js", ".gitignore"}

func normalize(name string) (string, error) {
	normalized := skill.Normalize(name)
	if normalized == "" {
		return "", deploy.Newf(deploy.InvalidName, "skill name %q has no word characters", name)
	}
	return normalized, nil
}

// ConsoleURL is where the operator adds the Alexa Skills Kit trigger.
func ConsoleURL(region, name string) string {
	return "https://console.aws.amazon.com/lambda/home?region=" + url.QueryEscape(region) +
		"#/functions/" + url.PathEscape(name) + "?tab=eventSources"
}

func (self *SkillManager) ensureStateDir() error {
	if err := os.MkdirAll(self.Workspace.StateDir, 0775); err != nil {
		return deploy.Wrap(deploy.WriteFailure, err, "cannot create state directory "+self.Workspace.StateDir)
	}
	return nil
}

// materialize renders the descriptors for an already normalized name.
func (self *SkillManager) materialize(name string) error {
	set, err := self.Materializer.Materialize(self.Workspace.StateDir, name)
	if err != nil {
		return err
	}
	self.Logger.WithField("uuid", set.RunID).Debug("descriptors rendered")
	return nil
}

func (self *SkillManager) installDependency() error {
	lib := self.Cfg.GetString("skillLibrary")
	cmd := shell.NewCommand(self.Workspace.Dir, self.Cfg.GetString("tools.npm"), "install", "--save", lib)
	self.Logger.Info(cmd.String())

	stdout, stderr, err := self.Runner.Run(cmd)
	if err != nil {
		return &deploy.Error{
			Kind:   deploy.DependencyInstallFailure,
			Msg:    "cannot install " + lib,
			Cmd:    cmd.String(),
			Stdout: stdout,
			Stderr: stderr,
			Err:    err,
		}
	}
	self.Out.Write(stdout)
	return nil
}

// Init scaffolds a new skill in the working directory and creates its Lambda
// function.
func (self *SkillManager) Init(name, role, profile string) error {
	if role == "" {
		return deploy.New(deploy.MissingRole, "lambda execution role ARN is required")
	}
	name, err := normalize(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(self.Out, "creating %s skill\n\n", name)

	if err := self.ensureStateDir(); err != nil {
		return err
	}

	vars := map[string]string{"skillName": name}
	for _, f := range skeleton {
		if err := self.Renderer.Render(f, vars, filepath.Join(self.Workspace.Dir, f)); err != nil {
			return err
		}
	}

	if err := self.materialize(name); err != nil {
		return err
	}

	if err := self.installDependency(); err != nil {
		return err
	}

	archivePath, err := self.Archiver.Build(self.Workspace.Dir, self.Workspace.StateDir)
	if err != nil {
		return err
	}

	opts := self.Options(profile)
	out, err := self.Invoker.CreateFunction(remote.CreateRequest{
		Name:           name,
		Role:           role,
		Handler:        self.Cfg.GetString("handler"),
		Runtime:        self.Cfg.GetString("runtime"),
		ArchivePath:    archivePath,
		DescriptorPath: self.Workspace.State(descriptor.CreateFile),
	}, opts)
	if err != nil {
		return err
	}
	self.Out.Write(out)

	fmt.Fprintf(self.Out, "\ngo add event source Alexa Skills Kit on %s\n", ConsoleURL(opts.Region, name))
	fmt.Fprintln(self.Out, "\ndone")
	return nil
}

// Setup points the working directory at an existing function: it rewrites
// the descriptors and builds the archive, without calling AWS.
func (self *SkillManager) Setup(name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	if err := self.ensureStateDir(); err != nil {
		return err
	}
	if err := self.materialize(name); err != nil {
		return err
	}
	if _, err := self.Archiver.Build(self.Workspace.Dir, self.Workspace.StateDir); err != nil {
		return err
	}
	fmt.Fprintln(self.Out, "\nalcl push to upload code to AWS")
	return nil
}

// Push rebuilds the archive and uploads it. The function name comes from the
// update-function-code descriptor written by setup or init.
func (self *SkillManager) Push(profile string) error {
	archivePath, err := self.Archiver.Build(self.Workspace.Dir, self.Workspace.StateDir)
	if err != nil {
		return err
	}

	out, err := self.Invoker.UpdateFunctionCode(archivePath, self.Workspace.State(descriptor.UpdateFile), self.Options(profile))
	if err != nil {
		return err
	}
	self.Out.Write(out)
	return nil
}

func (self *SkillManager) payloadPath(payloadFile string) (string, error) {
	if payloadFile == "" {
		return self.Workspace.State(descriptor.PayloadFile), nil
	}
	path, err := homedir.Expand(payloadFile)
	if err != nil {
		return "", deploy.Wrap(deploy.PayloadNotFound, err, "cannot resolve "+payloadFile)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(self.Workspace.Dir, path)
	}
	return path, nil
}

// Test invokes the deployed function with a payload file (launch.json by
// default) and prints its log tail and response.
func (self *SkillManager) Test(profile, payloadFile string) error {
	name, err := descriptor.ReadFunctionName(self.Workspace.StateDir)
	if err != nil {
		return err
	}

	path, err := self.payloadPath(payloadFile)
	if err != nil {
		return err
	}
	payload, err := ioutil.ReadFile(path)
	if err != nil {
		return deploy.Wrap(deploy.PayloadNotFound, err, "cannot read test payload")
	}
	if strings.TrimSpace(string(payload)) == "" {
		return deploy.New(deploy.PayloadNotFound, "empty test payload in "+path)
	}

	result, err := self.Invoker.Invoke(name, string(payload), self.Workspace.State(descriptor.OutputFile), self.Options(profile))
	if err != nil {
		return err
	}
	if result.FunctionError != "" {
		self.Logger.WithField("function", name).Warnf("function returned error: %s", result.FunctionError)
	}

	printSection(self.Out, "log", result.Log)
	printSection(self.Out, "output", string(result.Output))
	return nil
}

// introspect asks the generated function for its interaction model.
func (self *SkillManager) introspect(flag string) error {
	cmd := shell.NewCommand(self.Workspace.Dir, self.Cfg.GetString("tools.node"), "index.js", flag)
	self.Logger.Debug(cmd.String())

	stdout, stderr, err := self.Runner.Run(cmd)
	if err != nil {
		return &deploy.Error{
			Kind:   deploy.IntrospectionFailure,
			Msg:    "index.js " + flag + " failed",
			Cmd:    cmd.String(),
			Stdout: stdout,
			Stderr: stderr,
			Err:    err,
		}
	}
	self.Out.Write(stdout)
	return nil
}

// Schema prints the intent schema declared by the skill.
func (self *SkillManager) Schema() error {
	return self.introspect("--schema")
}

// Utterances prints the sample utterances declared by the skill.
func (self *SkillManager) Utterances() error {
	return self.introspect("--utterances")
}

