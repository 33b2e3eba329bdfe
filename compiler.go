package flowscene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Compiler turns diagram source text into an SVG document.
type Compiler interface {
	Compile(ctx context.Context, source []byte) ([]byte, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, source []byte) ([]byte, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, source []byte) ([]byte, error) {
	return f(ctx, source)
}

// CompileError reports a diagram source the compiler rejected. The scene
// store keeps the previous scene and shows FirstLine to the user.
type CompileError struct {
	// Detail is the compiler's full diagnostic output.
	Detail string
	Err    error
}

func (e *CompileError) Error() string {
	return "flowscene: compile: " + e.FirstLine()
}

func (e *CompileError) Unwrap() error { return e.Err }

// FirstLine returns the first non-blank line of the diagnostic, falling back
// to the wrapped error.
func (e *CompileError) FirstLine() string {
	for _, line := range strings.Split(e.Detail, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown compile error"
}

// DefaultCompileTimeout bounds one CommandCompiler invocation.
const DefaultCompileTimeout = 30 * time.Second

// CommandCompiler runs an external diagram compiler. Args may contain the
// placeholders {in} and {out}, replaced by temporary input and output file
// paths. The zero value runs "mmdc -i {in} -o {out} -q".
type CommandCompiler struct {
	Command string
	Args    []string
	// InputExt is the extension of the temporary source file. Default ".mmd".
	InputExt string
	// Timeout bounds one invocation. Default DefaultCompileTimeout.
	Timeout time.Duration
}

// Compile writes source to a temp file, runs the command and returns the
// produced SVG. A non-zero exit becomes a *CompileError carrying stderr.
func (c CommandCompiler) Compile(ctx context.Context, source []byte) ([]byte, error) {
	command, args := c.Command, c.Args
	if command == "" {
		command = "mmdc"
		if args == nil {
			args = []string{"-i", "{in}", "-o", "{out}", "-q"}
		}
	}
	ext := c.InputExt
	if ext == "" {
		ext = ".mmd"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCompileTimeout
	}

	dir, err := os.MkdirTemp("", "flowscene-*")
	if err != nil {
		return nil, fmt.Errorf("flowscene: compile: %w", err)
	}
	defer os.RemoveAll(dir)
	in := filepath.Join(dir, "diagram"+ext)
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, source, 0o600); err != nil {
		return nil, fmt.Errorf("flowscene: compile: %w", err)
	}

	expanded := make([]string, len(args))
	for i, a := range args {
		a = strings.ReplaceAll(a, "{in}", in)
		expanded[i] = strings.ReplaceAll(a, "{out}", out)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, command, expanded...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &CompileError{Detail: stderr.String(), Err: err}
		}
		return nil, fmt.Errorf("flowscene: compile: run %s: %w", command, err)
	}

	svg, err := os.ReadFile(out)
	if errors.Is(err, os.ErrNotExist) && stdout.Len() > 0 {
		// Some compilers only support writing to stdout.
		return stdout.Bytes(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("flowscene: compile: read output: %w", err)
	}
	return svg, nil
}
