// Package main provides the entry point for the cito compiler CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/cliutil"
	"github.com/Marco012/cito/internal/codegen"
	"github.com/Marco012/cito/internal/compilerrors"
	"github.com/Marco012/cito/internal/lexer"
	"github.com/Marco012/cito/internal/parser"
	"github.com/Marco012/cito/internal/position"
)

var (
	logger  *cliutil.Logger
	verbose bool
	debug   bool
)

func main() {
	root := &cobra.Command{
		Use:   "cic",
		Short: "The cito compiler front end",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = cliutil.NewLogger(verbose, debug)
		},
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newTokensCmd())
	root.AddCommand(newASTCmd())
	root.AddCommand(newASTDiffCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newConfigInitCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// validateInputs runs every path through the security validator before
// any file is opened.
func validateInputs(files []string) error {
	sv := NewSecurityValidator()
	for _, f := range files {
		if err := sv.ValidateInputFile(f); err != nil {
			return err
		}
	}
	return nil
}

// parseFiles parses every file into one accumulating Program, merging any
// project-registered extra generic container names into the parser's
// table. It aborts at the first file that fails to parse.
func parseFiles(files []string, cfg *cliutil.Config) (*ast.Program, *position.SourceMap, error) {
	sm := position.NewSourceMap()
	p := parser.NewWithExtraGenerics(cfg.ExtraGenerics)
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, sm, fmt.Errorf("failed to read %s: %w", f, err)
		}
		sm.AddFile(f, string(src))
		logger.Debug("parsing %s", f)
		if err := p.Parse(f, string(src)); err != nil {
			return nil, sm, err
		}
	}
	return p.Program(), sm, nil
}

// parseFilesDiagnosed is parseFiles for "cic build": every file is still
// parsed to first-failure independently, but one bad file doesn't stop the
// rest from being attempted. Failures accumulate into a Diagnostics so the
// CLI can report every broken file from one invocation.
func parseFilesDiagnosed(files []string, cfg *cliutil.Config) (*ast.Program, *position.SourceMap, *compilerrors.Diagnostics) {
	sm := position.NewSourceMap()
	p := parser.NewWithExtraGenerics(cfg.ExtraGenerics)
	diag := &compilerrors.Diagnostics{}
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			diag.Add(compilerrors.Structural(f, 0, "failed to read file: %v", err))
			continue
		}
		sm.AddFile(f, string(src))
		logger.Debug("parsing %s", f)
		if err := p.Parse(f, string(src)); err != nil {
			if ce, ok := err.(*compilerrors.CompileError); ok {
				diag.Add(ce)
			} else {
				diag.Add(compilerrors.Structural(f, 0, "%v", err))
			}
		}
	}
	return p.Program(), sm, diag
}

// printSourceContext prints the offending source line of a CompileError
// beneath its message, if the file and line are known to sm.
func printSourceContext(sm *position.SourceMap, filename string, line int) {
	src := sm.GetLine(position.Position{Filename: filename, Line: line})
	if src == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "    %s\n", strings.TrimRight(src, "\r"))
}

// reportParseError prints the offending line for a *compilerrors.CompileError
// before handing the error back to cobra for its usual reporting.
func reportParseError(sm *position.SourceMap, err error) error {
	if ce, ok := err.(*compilerrors.CompileError); ok {
		printSourceContext(sm, ce.Filename, ce.Line)
	}
	return err
}

func newBuildCmd() *cobra.Command {
	var target, out, configPath string

	cmd := &cobra.Command{
		Use:   "build <files...>",
		Short: "Parse one or more .ci files and run a code generator over the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputs(args); err != nil {
				return err
			}
			sv := NewSecurityValidator()
			if err := sv.ValidateOutputPath(out); err != nil {
				return err
			}

			cfg, err := cliutil.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.DefaultTarget
			}

			program, sm, diag := parseFilesDiagnosed(args, cfg)
			if diag.HasErrors() {
				for _, ce := range diag.Errors {
					fmt.Fprintln(os.Stderr, ce.Error())
					printSourceContext(sm, ce.Filename, ce.Line)
				}
				return fmt.Errorf("%d of %d file(s) failed to parse", diag.Count(), len(args))
			}

			gen, ok := codegen.Registry()[target]
			if !ok {
				return fmt.Errorf("unknown target %q", target)
			}
			output, err := gen.Generate(program)
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Print(output)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			return os.WriteFile(out, []byte(output), 0o644)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "generator target (default from config, else sexpr)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to project config JSON")
	return cmd
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the raw token stream of a .ci file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputs(args); err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			lx, err := lexer.New(args[0], string(src))
			if err != nil {
				return err
			}
			for {
				tok := lx.Current()
				fmt.Printf("%-28s %-20q line %d\n", tok.Kind, tok.Literal, tok.Pos.Line)
				if tok.Kind == lexer.EOF {
					return nil
				}
				if _, err := lx.NextToken(); err != nil {
					return err
				}
			}
		},
	}
}

func newASTCmd() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Parse a .ci file and print its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputs(args); err != nil {
				return err
			}
			program, sm, err := parseFiles(args, &cliutil.Config{})
			if err != nil {
				return reportParseError(sm, err)
			}
			if dump {
				spew.Dump(program)
				return nil
			}
			gen := &codegen.SexprGenerator{}
			out, err := gen.Generate(program)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "use a full recursive field dump instead of the s-expression renderer")
	return cmd
}

func newASTDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast-diff <a> <b>",
		Short: "Print the structural difference between two parsed .ci files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputs(args); err != nil {
				return err
			}
			progA, smA, err := parseFiles([]string{args[0]}, &cliutil.Config{})
			if err != nil {
				return reportParseError(smA, err)
			}
			progB, smB, err := parseFiles([]string{args[1]}, &cliutil.Config{})
			if err != nil {
				return reportParseError(smB, err)
			}
			diff := cmp.Diff(progA, progB, cmpopts.IgnoreUnexported(ast.Program{}))
			if diff == "" {
				fmt.Println("no structural differences")
				return nil
			}
			fmt.Print(diff)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "watch <files...>",
		Short: "Re-run build whenever a watched file changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputs(args); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			for _, f := range args {
				if err := watcher.Add(f); err != nil {
					return err
				}
			}

			rebuild := func() {
				program, sm, err := parseFiles(args, &cliutil.Config{DefaultTarget: target})
				if err != nil {
					logger.Error("build failed: %v", err)
					if ce, ok := err.(*compilerrors.CompileError); ok {
						printSourceContext(sm, ce.Filename, ce.Line)
					}
					return
				}
				gen, ok := codegen.Registry()[target]
				if !ok {
					logger.Error("unknown target %q", target)
					return
				}
				out, err := gen.Generate(program)
				if err != nil {
					logger.Error("generate failed: %v", err)
					return
				}
				fmt.Print(out)
			}

			changes := make(chan struct{}, 1)
			go func() {
				for {
					select {
					case event, ok := <-watcher.Events:
						if !ok {
							return
						}
						if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
							select {
							case changes <- struct{}{}:
							default:
							}
						}
					case werr, ok := <-watcher.Errors:
						if !ok {
							return
						}
						logger.Error("watch error: %v", werr)
					}
				}
			}()

			logger.Info("watching %d file(s) for changes", len(args))
			rebuild()
			for range changes {
				rebuild()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "sexpr", "generator target")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var out, target string
	var extraGenerics map[string]string

	cmd := &cobra.Command{
		Use:   "config-init",
		Short: "Write a starter project configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewSecurityValidator().ValidateOutputPath(out); err != nil {
				return err
			}
			cfg, err := cliutil.LoadConfig("")
			if err != nil {
				return err
			}
			if target != "" {
				cfg.DefaultTarget = target
			}
			if len(extraGenerics) > 0 {
				cfg.ExtraGenerics = make(map[string]int, len(extraGenerics))
				for name, arity := range extraGenerics {
					n, convErr := strconv.Atoi(arity)
					if convErr != nil {
						return fmt.Errorf("invalid arity for %q: %w", name, convErr)
					}
					cfg.ExtraGenerics[name] = n
				}
			}
			if err := cfg.SaveConfig(out); err != nil {
				return err
			}
			logger.Info("wrote configuration to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "cic.json", "path to write the configuration file")
	cmd.Flags().StringVar(&target, "target", "sexpr", "default generator target")
	cmd.Flags().StringToStringVar(&extraGenerics, "generic", nil, "extra generic container arity, e.g. --generic Queue=1")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliutil.PrintVersion("cic", jsonOutput)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print version information as JSON")
	return cmd
}
