package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	ren "github.com/hostilefork/ren-go"
	"github.com/hostilefork/ren-go/engine"
	"github.com/hostilefork/ren-go/libr3"
	"github.com/hostilefork/ren-go/miniren"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to a libr3 wasm build (default: built-in evaluator)")
		evalSrc     = flag.String("eval", "", "Source text to evaluate and print")
		interactive = flag.Bool("i", false, "Interactive console")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if err := run(*wasmFile, *evalSrc, *interactive, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, evalSrc string, interactive, verbose bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()
	}

	rt, cleanup, err := buildRuntime(ctx, wasmFile, log)
	if err != nil {
		return err
	}
	defer cleanup()

	e, err := engine.New(rt, engine.WithLogger(log))
	if err != nil {
		return err
	}
	defer e.Close()

	switch {
	case evalSrc != "":
		return evalAndPrint(e, evalSrc)

	case interactive:
		return runConsole(e, backendName(wasmFile))

	case term.IsTerminal(int(os.Stdin.Fd())):
		// A terminal with no script to run gets the console.
		return runConsole(e, backendName(wasmFile))

	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(src)) == "" {
			return nil
		}
		return evalAndPrint(e, string(src))
	}
}

// buildRuntime picks the backend: a libr3 wasm build when a path is
// given, the built-in evaluator otherwise.
func buildRuntime(ctx context.Context, wasmFile string, log *zap.Logger) (ren.Runtime, func(), error) {
	if wasmFile == "" {
		return miniren.New(), func() {}, nil
	}

	rt, err := libr3.New(ctx, libr3.Config{WasmPath: wasmFile}, libr3.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return rt, func() { _ = rt.Close() }, nil
}

func backendName(wasmFile string) string {
	if wasmFile == "" {
		return "builtin"
	}
	return wasmFile
}

func evalAndPrint(e *engine.Engine, src string) error {
	code, err := engine.NewText(src)
	if err != nil {
		return err
	}

	v, err := e.Value1(code)
	if err != nil {
		var scriptErr *engine.ScriptError
		if stderrors.As(err, &scriptErr) {
			return fmt.Errorf("%s", scriptErr.Error())
		}
		return err
	}
	defer v.Release()

	out, err := v.UnboxStringQ()
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}
