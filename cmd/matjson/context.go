package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-matjson"
)

type globalFlags struct {
	config     string
	logLevel   string
	logFormat  string
	bestEffort bool
}

type commandContext struct {
	flags *globalFlags

	once    sync.Once
	conv    *matjson.Converter
	convErr error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) config() (matjson.Config, error) {
	path := strings.TrimSpace(c.flags.config)
	if path == "" {
		return matjson.DefaultConfig(), nil
	}
	return matjson.LoadConfig(path)
}

// converter builds the converter once per invocation. Logs go to the
// command's stderr.
func (c *commandContext) converter(cmd *cobra.Command) (*matjson.Converter, error) {
	c.once.Do(func() {
		cfg, err := c.config()
		if err != nil {
			c.convErr = err
			return
		}
		logger, err := newLogger(cmd.ErrOrStderr(), c.flags.logLevel, c.flags.logFormat)
		if err != nil {
			c.convErr = err
			return
		}
		policy := matjson.FailFast
		if c.flags.bestEffort {
			policy = matjson.BestEffort
		}
		c.conv, c.convErr = matjson.New(cfg, matjson.WithLogger(logger), matjson.WithErrorPolicy(policy))
	})
	return c.conv, c.convErr
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "text"
		}
	}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid --log-format %q (want auto, text or json)", format)
}

// readInput reads a plain JSON document or a container from path; "-" is stdin.
func readInput(cmd *cobra.Command, path string) (matjson.Document, error) {
	if path == "-" {
		return matjson.ReadAny(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := matjson.ReadAny(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// writeOutput calls write with path opened for writing; "" or "-" is stdout.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
