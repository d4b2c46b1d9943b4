package cmd

import (
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/user/convo/internal/config"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/session"
	"github.com/user/convo/internal/store"
	"github.com/user/convo/internal/tool"
	"github.com/user/convo/internal/tool/builtin"
)

// app bundles the wired collaborators one command invocation uses
type app struct {
	cfg    *config.GlobalConfig
	st     *store.Store
	driver *session.Driver
	logger *logging.Logger
}

// newApp loads configuration and wires the store, tool registry, logger
// and session driver. Callers must Close when done.
func newApp() (*app, error) {
	cfg, err := config.NewLoader().Load(nil)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.LogDir != "" {
		logCfg.LogDir = cfg.Logging.LogDir
	}
	logCfg.FileLevel = logging.LevelFromString(cfg.Logging.FileLevel)
	logCfg.ConsoleLevel = logging.LevelFromString(cfg.Logging.ConsoleLevel)
	logCfg.ConsoleEnabled = cfg.Logging.Console
	if debugFlag {
		logCfg.FileLevel = zapcore.DebugLevel
		logCfg.ConsoleEnabled = true
		logCfg.ConsoleLevel = zapcore.DebugLevel
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()
	if cfg.Session.EnableTools {
		workDir := cfg.Session.WorkDir
		if workDir == "" {
			workDir, _ = os.Getwd()
		}
		registry.Register(builtin.NewReadFileTool(workDir))
		registry.Register(builtin.NewListFilesTool(workDir))
		registry.Register(builtin.NewSearchFilesTool(workDir))
		registry.Register(builtin.NewClockTool())
	}

	driver := session.NewDriver(cfg, st, registry, logger)

	return &app{
		cfg:    cfg,
		st:     st,
		driver: driver,
		logger: logger,
	}, nil
}

// Close flushes logs and closes the store
func (a *app) Close() {
	_ = a.logger.Sync()
	_ = a.st.Close()
}
