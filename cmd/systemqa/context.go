package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"systemqa/internal/config"
	"systemqa/internal/daemonrun"
	"systemqa/internal/logging"
	"systemqa/internal/manuals"
)

// session holds the persistent flags and the lazily loaded config shared by
// every subcommand of one invocation.
type session struct {
	configFlag string
	jsonFlag   bool

	loaded   bool
	cfg      *config.Config
	cfgPath  string
	cfgFound bool
	cfgErr   error
}

// skipConfig marks commands that must run without a loadable config file.
var skipConfig = map[string]string{"systemqa/skip-config": "1"}

func (s *session) loadConfig() (*config.Config, error) {
	if s.loaded {
		return s.cfg, s.cfgErr
	}
	s.loaded = true

	cfg, path, found, err := config.Load(strings.TrimSpace(s.configFlag))
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	if err != nil {
		s.cfgErr = err
		return nil, err
	}
	s.cfg, s.cfgPath, s.cfgFound = cfg, path, found
	return cfg, nil
}

func (s *session) jsonOutput() bool {
	return s.jsonFlag
}

// logger writes console logs to stderr so stdout stays parseable.
func (s *session) logger() *slog.Logger {
	opts := logging.Options{Level: "info", Format: "console", Outputs: []string{"stderr"}}
	if s.cfg != nil && s.cfg.Logging.Level != "" {
		opts.Level = s.cfg.Logging.Level
	}
	logger, err := logging.New(opts)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (s *session) withStore(fn func(*manuals.Store) error) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	store, err := manuals.Open(cfg)
	if err != nil {
		return fmt.Errorf("open manual store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (s *session) withServices(ctx context.Context, fn func(*daemonrun.Services) error) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	svc, err := daemonrun.NewServices(ctx, cfg, s.logger())
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		for key := range skipConfig {
			if _, ok := c.Annotations[key]; ok {
				return false
			}
		}
	}
	return true
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
