package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/volsungdenichor/edn"
)

const (
	appName     = "edn"
	historyFile = ".edn_history"
	promptMain  = "=> "
	promptCont  = ".. "
)

var banner = fmt.Sprintf("edn %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", edn.Version)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func fail(err error) { fmt.Fprintln(os.Stderr, red("error: "+err.Error())) }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "version":
		fmt.Println(edn.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`edn %s

Usage:
  %s run <file.edn> [--] [args...]     Evaluate a file and print the result.
  %s repl                              Start the interactive REPL.
  %s fmt [-w] [-check] <file.edn>...   Reformat file(s).
  %s version                           Print the library version.

`, edn.Version, appName, appName, appName, appName)
}

// newInterpreter builds the library interpreter plus the CLI-only println
// native. The library core carries no I/O; hosts register their own.
func newInterpreter() *edn.Interpreter {
	ip := edn.NewInterpreter()
	ip.RegisterNative("println", func(args []edn.Value) (edn.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = edn.Str(a)
		}
		fmt.Println(strings.Join(parts, " "))
		return edn.Nil(), nil
	})
	return ip
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.edn> [--] [args...]\n", appName)
		return 2
	}

	file := args[0]
	argv := args[1:]
	for i, a := range argv {
		if a == "--" {
			argv = argv[i+1:]
			break
		}
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ip := newInterpreter()
	vals := make([]edn.Value, len(argv))
	for i, a := range argv {
		vals[i] = edn.String(a)
	}
	ip.Global.Define("argv", edn.Vector(vals...))

	v, err := ip.EvalSource(string(src))
	if err != nil {
		fail(edn.WrapErrorWithName(err, file, string(src)))
		return 1
	}
	fmt.Println(edn.Repr(v))
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip := newInterpreter()

	opts := edn.DefaultPrettyOptions()
	if liner.TerminalSupported() {
		opts.Colors = edn.DefaultColorScheme()
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		// :quit the REPL command shadows :quit the keyword literal, but
		// only as the whole line.
		if strings.EqualFold(trimmed, ":quit") {
			return 0
		}

		v, err := ip.EvalPersistentSource(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Print(edn.PrettyString(v, opts))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe accumulates prompt lines until the buffer parses, or
// fails with an error other than running out of input. Incomplete input
// keeps the continuation prompt open.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := edn.Parse(src)
		if perr == nil {
			return src, true
		}
		if edn.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "write result back to the file instead of stdout")
	check := fs.Bool("check", false, "list files whose formatting would change; exit 1 if any")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s fmt [-w] [-check] <file.edn>...\n", appName)
		return 2
	}

	opts, err := loadFormatOptions(".")
	if err != nil {
		fail(err)
		return 1
	}

	bad := 0
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
			return 1
		}
		out, err := formatSource(string(src), opts)
		if err != nil {
			fail(edn.WrapErrorWithName(err, file, string(src)))
			return 1
		}
		switch {
		case *check:
			if out != string(src) {
				fmt.Println(file)
				bad++
			}
		case *write:
			if out != string(src) {
				if err := os.WriteFile(file, []byte(out), 0o644); err != nil {
					fmt.Fprintf(os.Stderr, "%s: cannot write %s: %v\n", appName, file, err)
					return 1
				}
			}
		default:
			fmt.Print(out)
		}
	}

	if bad > 0 {
		return 1
	}
	return 0
}

// formatSource reformats every top-level form, one per block.
func formatSource(src string, opts edn.PrettyOptions) (string, error) {
	forms, err := edn.ParseForms(src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range forms {
		b.WriteString(edn.PrettyString(f, opts))
	}
	return b.String(), nil
}
