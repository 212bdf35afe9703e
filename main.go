// kongur runs the concatenative, stack-based language implemented by the
// packages under this module: a thin CLI launcher around the parser, the
// stackless vm, and the prelude's built-in vocabulary.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/parser"
	"github.com/dr8co/kongur/prelude"
	"github.com/dr8co/kongur/repl"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

const version = "0.1.0"

// printUsage displays custom usage information.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `kongur v%s

USAGE:
    %s [OPTIONS] [path]

DESCRIPTION:
    Without any arguments, kongur opens an interactive REPL. Given a
    positional path, it parses and runs that file, then exits.

OPTIONS:
    -i              Read a program from standard input and run it
    -r path         Run a file, then open the REPL against its resulting state
    -c "src"        Run inline source and exit
    -d, --debug     Trace every instruction as it executes
    -v, --version   Show version information
    -h, --help      Show this help message

EXAMPLES:
    %s
    %s script.kong
    %s -c '"hello" println-string'
    %s -i < script.kong
    %s -r script.kong
`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage

	stdinFlag := flag.Bool("i", false, "read a program from standard input")
	runReplFlag := flag.String("r", "", "run a file, then open the REPL against its resulting state")
	inlineFlag := flag.String("c", "", "run inline source")
	debugFlag := flag.Bool("debug", false, "trace every instruction as it executes")
	flag.BoolVar(debugFlag, "d", false, "trace every instruction as it executes")
	versionFlag := flag.Bool("version", false, "show version information")
	flag.BoolVar(versionFlag, "v", false, "show version information")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("kongur v%s\n", version)
		return
	}

	positional := flag.Args()

	switch {
	case invalidCombination(*inlineFlag, *stdinFlag, *runReplFlag, positional):
		printUsage()
		os.Exit(2)

	case *inlineFlag != "":
		runFileOrSource(*inlineFlag, *debugFlag)

	case *runReplFlag != "":
		runThenRepl(*runReplFlag, *debugFlag)

	case *stdinFlag:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading standard input: %s\n", err)
			os.Exit(1)
		}
		runFileOrSource(string(src), *debugFlag)

	case len(positional) == 1:
		executeFile(positional[0], *debugFlag)

	default:
		m := newMachine(*debugFlag)
		startRepl(prelude.Install(value.NewState(), m), m, *debugFlag)
	}
}

// invalidCombination flags the unknown invocations spec §6 asks the
// launcher to reject: more than one positional path, or -c combined with
// any of -i/-r/a path (each of those already picks its own source).
func invalidCombination(inline string, stdin bool, runRepl string, positional []string) bool {
	if len(positional) > 1 {
		return true
	}
	if inline != "" && (stdin || runRepl != "" || len(positional) == 1) {
		return true
	}
	return false
}

func newMachine(debug bool) *vm.Machine {
	m := vm.New()
	if debug {
		m.Trace = func(_ *value.State, instr value.Instruction) {
			fmt.Fprintf(os.Stderr, "DEBUG: %#v\n", instr)
		}
	}
	return m
}

// execute parses and runs src against state, recovering a typed failure
// into a plain error the same way the REPL's own evaluation loop does.
func execute(state *value.State, m *vm.Machine, src string) (next *value.State, err error) {
	instrs, err := parser.Parse(src)
	if err != nil {
		return state, err
	}
	defer failure.Recover(&err)
	next = state // what a recovered failure returns
	return m.Run(state, instrs), nil
}

func runFileOrSource(src string, debug bool) {
	m := newMachine(debug)
	state := prelude.Install(value.NewState(), m)
	if _, err := execute(state, m, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func executeFile(filename string, debug bool) {
	absolute, err := filepath.Abs(filepath.Clean(filename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving path: %s\n", err)
		os.Exit(1)
	}

	//nolint:gosec // the path comes from the command line, not untrusted input
	content, err := os.ReadFile(absolute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %s\n", err)
		os.Exit(1)
	}

	runFileOrSource(string(content), debug)
}

func runThenRepl(filename string, debug bool) {
	absolute, err := filepath.Abs(filepath.Clean(filename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving path: %s\n", err)
		os.Exit(1)
	}

	//nolint:gosec // the path comes from the command line, not untrusted input
	content, err := os.ReadFile(absolute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %s\n", err)
		os.Exit(1)
	}

	m := newMachine(debug)
	state := prelude.Install(value.NewState(), m)
	state, err = execute(state, m, string(content))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	startRepl(state, m, debug)
}

func startRepl(state *value.State, m *vm.Machine, debug bool) {
	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}
	repl.Start(username, state, m, repl.Options{Debug: debug})
}
