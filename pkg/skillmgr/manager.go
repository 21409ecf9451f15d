package skillmgr

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/serverlessresearch/alcl/pkg/archive"
	"github.com/serverlessresearch/alcl/pkg/descriptor"
	"github.com/serverlessresearch/alcl/pkg/remote"
	"github.com/serverlessresearch/alcl/pkg/render"
	"github.com/serverlessresearch/alcl/pkg/shell"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Workspace is the skill project alcl operates on. Nothing downstream of
// NewManager looks at the process working directory.
type Workspace struct {
	Dir      string
	StateDir string
}

func (w Workspace) State(file string) string {
	return filepath.Join(w.StateDir, file)
}

type SkillManager struct {
	Workspace Workspace
	Cfg       *viper.Viper
	Logger    logrus.FieldLogger
	// Results meant for the operator (test output, follow-up hints)
	Out io.Writer

	Runner       shell.Runner
	Renderer     *render.Renderer
	Materializer *descriptor.Materializer
	Archiver     archive.Builder
	Invoker      remote.Invoker
}

// NewManager recognizes the options:
//   "config-file" string: config file to load instead of searching for alcl.yaml
//   "dir" string: skill working directory (defaults to the current directory)
//   "logger" logrus.FieldLogger
//   "runner" shell.Runner: executes zip, npm, node and aws
//   "output" io.Writer: defaults to os.Stdout
func NewManager(userCfg map[string]interface{}) (*SkillManager, error) {
	var err error
	mgr := &SkillManager{}

	if loggerRaw, ok := userCfg["logger"]; ok {
		if logger, ok := loggerRaw.(logrus.FieldLogger); ok {
			mgr.Logger = logger
		} else {
			return nil, errors.New("option 'logger' must satisfy logrus.FieldLogger")
		}
	} else {
		mgr.Logger = logrus.New()
	}

	dir := ""
	if dirRaw, ok := userCfg["dir"]; ok {
		if dir, ok = dirRaw.(string); !ok {
			return nil, errors.New("option 'dir' must be of type string")
		}
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "cannot determine working directory")
		}
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, errors.Wrap(err, "cannot resolve working directory")
	}

	var cfgPath *string
	if cfgPathRaw, ok := userCfg["config-file"]; ok {
		path, ok := cfgPathRaw.(string)
		if !ok {
			return nil, errors.New("option 'config-file' must be of type string")
		}
		if path != "" {
			cfgPath = &path
		}
	}
	if err = mgr.initConfig(dir, cfgPath); err != nil {
		return nil, err
	}

	stateDir, err := stateDirIn(dir, mgr.Cfg.GetString("stateDir"))
	if err != nil {
		return nil, err
	}
	mgr.Workspace = Workspace{Dir: dir, StateDir: stateDir}

	mgr.Runner = shell.Exec{}
	if runnerRaw, ok := userCfg["runner"]; ok {
		if mgr.Runner, ok = runnerRaw.(shell.Runner); !ok {
			return nil, errors.New("option 'runner' must satisfy shell.Runner")
		}
	}

	mgr.Out = os.Stdout
	if outRaw, ok := userCfg["output"]; ok {
		if mgr.Out, ok = outRaw.(io.Writer); !ok {
			return nil, errors.New("option 'output' must satisfy io.Writer")
		}
	}

	if err = mgr.initPipeline(); err != nil {
		return nil, err
	}
	return mgr, nil
}

// stateDirIn resolves the configured state directory, which must be a proper
// subdirectory of the skill directory since it is excluded from the archive.
func stateDirIn(dir, stateDir string) (string, error) {
	rel := filepath.Clean(stateDir)
	if stateDir == "" || rel == "." || filepath.IsAbs(stateDir) ||
		rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("stateDir %q must be a subdirectory of %s", stateDir, dir)
	}
	return filepath.Join(dir, rel), nil
}

func (self *SkillManager) initConfig(dir string, cfgPath *string) error {
	// Private viper context so embedding programs keep their global one.
	self.Cfg = viper.New()

	// Descriptors and the archive live here, relative to the skill directory.
	self.Cfg.SetDefault("stateDir", "aws")

	// Order of precedence: ENV, alcl.yaml, "us-east-1"
	self.Cfg.SetDefault("region", remote.DefaultRegion)
	self.Cfg.BindEnv("region", "AWS_DEFAULT_REGION")
	self.Cfg.SetDefault("profile", "")

	self.Cfg.SetDefault("runtime", "nodejs20.x")
	self.Cfg.SetDefault("handler", "index.handler")
	self.Cfg.SetDefault("userId", descriptor.DefaultUserID)
	self.Cfg.SetDefault("skillLibrary", "alexa-app")
	self.Cfg.SetDefault("templateDir", "")

	// "zip" shells out to Info-ZIP, "native" writes the archive in-process
	self.Cfg.SetDefault("archive.tool", "zip")
	// "cli" shells out to the aws CLI, "sdk" calls the Lambda API
	self.Cfg.SetDefault("remote.backend", "cli")
	self.Cfg.SetDefault("remote.endpoint", "")

	self.Cfg.SetDefault("tools.aws", "aws")
	self.Cfg.SetDefault("tools.zip", "zip")
	self.Cfg.SetDefault("tools.npm", "npm")
	self.Cfg.SetDefault("tools.node", "node")

	if cfgPath != nil {
		path, err := homedir.Expand(*cfgPath)
		if err != nil {
			return errors.Wrap(err, "Failed to resolve config path")
		}
		self.Cfg.SetConfigFile(path)
		if err := self.Cfg.ReadInConfig(); err != nil {
			return errors.Wrap(err, "Failed to load config")
		}
		return nil
	}

	// default search path is <dir>/alcl.* then ~/.alcl/alcl.* (* can be json, yaml, etc)
	self.Cfg.SetConfigName("alcl")
	self.Cfg.AddConfigPath(dir)
	if home, err := homedir.Dir(); err == nil {
		self.Cfg.AddConfigPath(filepath.Join(home, ".alcl"))
	}
	if err := self.Cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "Failed to load config")
		}
	}
	return nil
}

func (self *SkillManager) initPipeline() error {
	templateDir, err := homedir.Expand(self.Cfg.GetString("templateDir"))
	if err != nil {
		return errors.Wrap(err, "Failed to resolve templateDir")
	}
	self.Renderer = render.New(self.Logger.WithField("module", "render"), templateDir)
	self.Materializer = &descriptor.Materializer{
		Renderer: self.Renderer,
		UserID:   self.Cfg.GetString("userId"),
	}

	switch tool := self.Cfg.GetString("archive.tool"); tool {
	case "zip":
		self.Archiver = archive.NewZipCommand(
			self.Cfg.GetString("tools.zip"),
			self.Runner,
			self.Logger.WithField("module", "archive.zip"))
	case "native":
		self.Archiver = &archive.Native{Logger: self.Logger.WithField("module", "archive.native")}
	default:
		return errors.New("Unrecognized archive tool: " + tool)
	}

	switch backend := self.Cfg.GetString("remote.backend"); backend {
	case "cli":
		self.Invoker = remote.NewCLI(
			self.Cfg.GetString("tools.aws"),
			self.Workspace.Dir,
			self.Runner,
			self.Logger.WithField("module", "remote.cli"))
	case "sdk":
		self.Invoker = remote.NewSDK(
			self.Cfg.GetString("remote.endpoint"),
			self.Logger.WithField("module", "remote.sdk"))
	default:
		return errors.New("Unrecognized remote backend: " + backend)
	}
	return nil
}

// Options resolves the invocation options for one command. An empty profile
// falls back to the configured one.
func (self *SkillManager) Options(profile string) remote.Options {
	if profile == "" {
		profile = self.Cfg.GetString("profile")
	}
	return remote.Options{
		Region:  self.Cfg.GetString("region"),
		Profile: profile,
	}
}
