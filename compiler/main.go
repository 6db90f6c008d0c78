package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xiaobogaga/tickc/compiler/internal"
)

var (
	path       = flag.String("path", "", "the tick source file needs to be compiled")
	output     = flag.String("o", "", "where the generated sketch is written, overrides the config")
	configPath = flag.String("config", "", "the tickc.yaml to use instead of searching next to the source")
	verbose    = flag.Bool("v", false, "log every compiler stage")
	color      = flag.String("color", "", "colored diagnostics: auto, always or never")
	toStdout   = flag.Bool("stdout", false, "print the sketch instead of writing it")
)

func main() {
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: -path is required")
		flag.Usage()
		os.Exit(2)
	}
	var cfg *internal.Config
	var err error
	if *configPath != "" {
		cfg, err = internal.LoadConfig(*configPath)
	} else {
		cfg, err = internal.ConfigFor(*path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		if cfg.Output, err = filepath.Abs(*output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
			os.Exit(1)
		}
	}
	switch mode := internal.ColorMode(*color); mode {
	case "":
	case internal.ColorAuto, internal.ColorAlways, internal.ColorNever:
		cfg.Diagnostics.Color = mode
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown color mode %q\n", *color)
		os.Exit(2)
	}
	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "", log.Ltime)
	}
	result, err := internal.CompileFile(*path, cfg, logger)
	if err != nil {
		if result == nil {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			internal.RenderDiagnostic(os.Stderr, result.Source, err, cfg.RenderOptions())
		}
		os.Exit(1)
	}
	if *toStdout {
		fmt.Print(result.Code)
		return
	}
	if err := internal.WriteSketch(result.OutputPath, result.Code); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
	if logger != nil {
		logger.Printf("compiler: wrote %s", result.OutputPath)
	}
}
