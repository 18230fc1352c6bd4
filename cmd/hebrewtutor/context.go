package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hebrewtutor/internal/app"
	"hebrewtutor/internal/config"
	"hebrewtutor/internal/logging"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	// configPath is the file the config was read from, or "" for defaults.
	configPath string
	configErr  error

	app *app.App
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		if exists {
			c.configPath = resolved
		}
	})
	return c.config, c.configErr
}

// application builds the component graph once per invocation. CLI logs go to
// stderr so stdout stays parseable with --json.
func (c *commandContext) application() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, "stderr")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseChapterArgs reads "<book...> <chapter>" so multi-word book names work
// with or without quoting.
func parseChapterArgs(args []string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, fmt.Errorf("expected <book> <chapter>")
	}
	chapter, err := strconv.Atoi(args[len(args)-1])
	if err != nil || chapter <= 0 {
		return "", 0, fmt.Errorf("invalid chapter %q", args[len(args)-1])
	}
	book := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if book == "" {
		return "", 0, fmt.Errorf("book is required")
	}
	return book, chapter, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
