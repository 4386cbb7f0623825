package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/roipatch/internal/config"
	rlog "github.com/nao1215/roipatch/internal/log"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds a Config from defaults and the configuration file.
// Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// Log formats accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

var errUnknownLogFormat = errors.New("unknown log format")

// getLogFormatFlag retrieves the log format from the command or its parent.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return logFormatText
		}
	}
	return format
}

// setupLogger creates a structured logger writing to the command's stderr,
// in the format selected by --log-format.
func setupLogger(cmd *cobra.Command, verbose bool) (*slog.Logger, error) {
	w := cmd.ErrOrStderr()
	switch format := strings.ToLower(getLogFormatFlag(cmd)); format {
	case "", logFormatText:
		return rlog.NewLogger(w, verbose), nil
	case logFormatJSON:
		return rlog.NewJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", errUnknownLogFormat, format, logFormatText, logFormatJSON)
	}
}

// flagSetter copies explicitly set flags onto config fields.
// The first error is kept and later calls become no-ops.
type flagSetter struct {
	cmd *cobra.Command
	err error
}

func (f *flagSetter) changed(name string) bool {
	return f.err == nil && f.cmd.Flags().Changed(name)
}

func (f *flagSetter) String(name string, dst *string) {
	if !f.changed(name) {
		return
	}
	*dst, f.err = f.cmd.Flags().GetString(name)
}

func (f *flagSetter) Int(name string, dst *int) {
	if !f.changed(name) {
		return
	}
	*dst, f.err = f.cmd.Flags().GetInt(name)
}

func (f *flagSetter) Bool(name string, dst *bool) {
	if !f.changed(name) {
		return
	}
	*dst, f.err = f.cmd.Flags().GetBool(name)
}

func (f *flagSetter) StringSlice(name string, dst *[]string) {
	if !f.changed(name) {
		return
	}
	*dst, f.err = f.cmd.Flags().GetStringSlice(name)
}
