// Command ktsimctl is the CLI/REPL collaborator SPEC_FULL.md §4.M names:
// a spf13/cobra command tree generalizing GVM's flag-based main.go entry
// point into subcommands, each exercising one library component end to
// end. It owns the one place in this module allowed to write to stdout.
package main

import (
	"fmt"
	"os"

	"ktsim/internal/kerrors"
)

func main() {
	stack := kerrors.NewStack()
	root := newRootCmd(stack)
	if err := root.Execute(); err != nil {
		stack.Push(toError(err))
	}

	if stack.Empty() {
		os.Exit(0)
	}

	// spec.md §7: "the CLI collaborator reads the error stack bottom-up and
	// prints a descending chain." Errors() already returns oldest-first.
	for _, e := range stack.Errors() {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	os.Exit(1)
}

// toError adapts a plain error (e.g. cobra's own flag-parsing failures)
// into the core error taxonomy so the CLI has one uniform reporting path.
func toError(err error) *kerrors.Error {
	if ke, ok := err.(*kerrors.Error); ok {
		return ke
	}
	return kerrors.New(kerrors.Core, "%s", err.Error())
}
