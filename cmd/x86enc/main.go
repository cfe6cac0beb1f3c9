// Command x86enc encodes Intel-syntax x86 and x86-64 instructions, lists the variants of a mnemonic
// and decodes machine code.
//
// Settings are read from flags, X86ENC_* environment variables (e.g. X86ENC_MODE=32) and an optional
// YAML config file given with --config, in that order of precedence.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wdamron/x86enc"
	"github.com/wdamron/x86enc/feats"
)

const envPrefix = "x86enc"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type config struct {
	v        *viper.Viper
	mode     x86enc.Mode
	features feats.Feature
	table    string
	log      *logrus.Logger
}

func newRootCommand() *cobra.Command {
	cfg := &config{v: viper.New()}
	root := &cobra.Command{
		Use:   "x86enc",
		Short: "Encode x86 and x86-64 instructions",
		Long: `Encode Intel-syntax x86 and x86-64 instructions for real, protected or long mode.

Settings may also be given as X86ENC_* environment variables (X86ENC_MODE, X86ENC_LOG_LEVEL, ...)
or in a YAML config file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.StringP("mode", "m", "long", "processor mode: real, protected or long (or 16, 32, 64)")
	pf.String("features", "ALL", "enabled CPU features, e.g. CMOV|SSE|SSE2")
	pf.String("table", "", "YAML variant table merged over the built-in table")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	root.AddCommand(
		newEncodeCommand(cfg),
		newVariantsCommand(cfg),
		newDisasmCommand(cfg),
	)
	return root
}

// Resolve settings for the command being run, from flags, the environment and the config file.
func (c *config) load(cmd *cobra.Command) error {
	v := c.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var err error
	if c.mode, err = x86enc.ParseMode(v.GetString("mode")); err != nil {
		return err
	}
	if c.features, err = feats.Parse(v.GetString("features")); err != nil {
		return err
	}
	c.table = v.GetString("table")

	c.log = logrus.New()
	c.log.SetOutput(cmd.ErrOrStderr())
	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	c.log.SetLevel(level)
	switch format := v.GetString("log-format"); format {
	case "json":
		c.log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		c.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return fmt.Errorf("invalid log format: %v", format)
	}
	return nil
}

// Build an encoder for the configured mode, features and table.
func (c *config) encoder() (*x86enc.Encoder, error) {
	enc := x86enc.NewEncoder(c.mode)
	enc.SetFeatures(c.features)
	enc.SetLogger(c.log)
	if c.table == "" {
		return enc, nil
	}

	f, err := os.Open(c.table)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	extra, err := x86enc.LoadTable(f)
	if err != nil {
		return nil, err
	}
	t := x86enc.NewTable()
	t.Merge(x86enc.DefaultTable())
	t.Merge(extra)
	enc.SetTable(t)
	c.log.WithFields(logrus.Fields{
		"path":      c.table,
		"mnemonics": len(extra.Mnemonics()),
		"variants":  extra.Len(),
	}).Info("loaded variant table")
	return enc, nil
}
