package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type CompileOptions struct {
	Generate GenerateOptions
	// Logger receives stage progress, nil disables it.
	Logger *log.Logger
}

// Compile runs the whole pipeline over source and returns the generated sketch. It stops at the
// first error, which is a *Diagnostic for every user mistake.
func Compile(source string, opts CompileOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Println("compiler: start parser")
	program, err := Parse(strings.NewReader(source))
	if err != nil {
		return "", err
	}
	logger.Println("compiler: start building symbol table")
	table, err := BuildSymbolTable(program)
	if err != nil {
		return "", err
	}
	logger.Println("compiler: start constraint checker")
	err = CheckConstraints(program, table)
	if err != nil {
		return "", err
	}
	logger.Println("compiler: start type checker")
	types, err := CheckTypes(program, table)
	if err != nil {
		return "", err
	}
	logger.Println("compiler: start generate codes")
	return GenerateCode(program, table, types, opts.Generate), nil
}

// FileResult is the outcome of CompileFile. Source is set as soon as the file could be read, so
// that a failing compilation can still be rendered.
type FileResult struct {
	Source     string
	Code       string
	OutputPath string
}

// CompileFile compiles the tick source at path with cfg. A nil cfg means the project file next to
// path, or the defaults when there is none.
func CompileFile(path string, cfg *Config, logger *log.Logger) (*FileResult, error) {
	if cfg == nil {
		var err error
		if cfg, err = ConfigFor(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	result := &FileResult{Source: string(data), OutputPath: cfg.OutputPath(path)}
	if logger != nil {
		logger.Printf("compiler: compiling %s", path)
	}
	result.Code, err = Compile(result.Source, CompileOptions{Generate: cfg.GenerateOptions(), Logger: logger})
	if err != nil {
		return result, err
	}
	return result, nil
}

// ConfigFor returns the project config of the source at path, or the defaults.
func ConfigFor(path string) (*Config, error) {
	configPath, err := FindConfig(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(configPath)
}

// WriteSketch writes code to path, creating missing directories.
func WriteSketch(path string, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, []byte(code), 0o644)
}
