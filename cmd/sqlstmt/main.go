// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command sqlstmt renders the statement described by a YAML descriptor
// file. Values are given as name=value arguments and parsed as YAML, so
// "id=3" is an integer and "ids=[1, 2]" a list. The SQL and its bindings
// are printed as a YAML document.
//
//	sqlstmt [-config file] [-pretty] descriptor.yaml [name=value ...]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlstmt"
	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/config"
)

const usage = "usage: sqlstmt [-config file] [-pretty] descriptor.yaml [name=value ...]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// output is the document printed for a rendered statement.
type output struct {
	SQL      string         `yaml:"sql"`
	Bindings map[string]any `yaml:"bindings,omitempty"`
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("sqlstmt", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "configuration file")
	pretty := flags.Bool("pretty", false, "print one clause per line")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}
	defer logger.Sync()

	out, err := generate(cfg, logger, flags.Arg(0), flags.Args()[1:], *pretty || cfg.Pretty)
	if err != nil {
		logger.Debug("generation failed", zap.String("descriptor", flags.Arg(0)), zap.Error(err))
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}
	if _, err := stdout.Write(out); err != nil {
		return 1
	}
	return 0
}

// generate renders the descriptor in the named file with the given
// name=value arguments.
func generate(cfg *config.Config, logger *zap.Logger, path string, args []string, pretty bool) ([]byte, error) {
	d, err := descriptor.LoadFile(path)
	if err != nil {
		return nil, err
	}
	opts := []sqlstmt.Option{
		sqlstmt.WithLogger(logger),
		sqlstmt.WithQuote(cfg.QuoteRune()),
	}
	if cfg.InjectionCheck {
		opts = append(opts, sqlstmt.WithInjectionCheck())
	}
	stmt, err := sqlstmt.New(d, opts...)
	if err != nil {
		return nil, err
	}
	values, err := parseValues(args)
	if err != nil {
		return nil, err
	}
	stmt.SetValues(values)
	logger.Debug("values set",
		zap.Strings("required", stmt.RequiredParams()),
		zap.Int("values", len(values)))

	var r *sqlstmt.Rendered
	if pretty {
		r, err = stmt.RenderPretty()
	} else {
		r, err = stmt.Render()
	}
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(output{SQL: r.SQL, Bindings: r.Bindings})
}

// parseValues parses name=value arguments. A value is decoded as a YAML
// node; an empty value is null.
func parseValues(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q: expected name=value", arg)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}
