package main

import (
	"flag"
	"fmt"
	"os"
	"scopevm/internal/config"
	"scopevm/internal/logger"
	"scopevm/internal/repl"
	"scopevm/internal/runner"
	"scopevm/pkg/color"

	"github.com/charmbracelet/log"
)

// Main entry point for the scopevm interpreter.
func main() {
	var (
		help        bool
		noColor     bool
		interactive bool
		example     bool
		configFile  string
		policy      string
		output      string
		maxDepth    int
		maxSteps    int
		abort       bool
	)

	r := runner.Runner{}

	flag.BoolVar(&help, "h", false, "Show help")
	flag.BoolVar(&r.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noColor, "n", false, "No color")
	flag.BoolVar(&interactive, "i", false, "Interactive mode")
	flag.BoolVar(&example, "example", false, "Run the built-in example program")
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.StringVar(&policy, "unresolved", "", "Unresolved call handling: skip or fatal")
	flag.StringVar(&output, "o", "", "Report format: text or yaml")
	flag.IntVar(&maxDepth, "depth", -1, "Maximum call depth (0 = unlimited)")
	flag.IntVar(&maxSteps, "steps", -1, "Maximum interpreter steps (0 = unlimited)")
	flag.BoolVar(&abort, "strict", false, "Do not execute when the analysis reports errors")

	flag.Parse()
	args := flag.Args()

	logger.Init(r.Verbose, noColor)
	if help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if noColor {
		color.EnableColor(false)
	}

	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			log.Fatal("Invalid configuration", "error", err)
		}
	}

	// flags override the config file
	if policy != "" {
		cfg.UnresolvedCall = policy
	}
	if output != "" {
		cfg.Output = output
	}
	if maxDepth >= 0 {
		cfg.MaxCallDepth = maxDepth
	}
	if maxSteps >= 0 {
		cfg.MaxSteps = maxSteps
	}
	if abort {
		cfg.AbortOnAnalysisErrors = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	r.Config = cfg

	switch {
	case interactive:
		if err := repl.Run(&r); err != nil {
			log.Fatal("Interactive session failed", "error", err)
		}
	case example:
		if _, err := r.Run(runner.ExampleProgram); err != nil {
			log.Fatal("Run failed", "error", err)
		}
	case len(args) == 0:
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	default:
		r.SourceFile = args[0]
		if err := r.RunFile(); err != nil {
			log.Fatal("Run failed", "error", err)
		}
	}
}
