package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ktsim/internal/config"
	"ktsim/internal/kerrors"
	"ktsim/internal/klog"
)

// appContext is threaded through every subcommand instead of package-level
// globals, the same explicit-context idiom internal/kerrors.Stack uses for
// its error stack (spec.md §5: "the only thread-local state is the error
// stack").
type appContext struct {
	Stack  *kerrors.Stack
	Log    *slog.Logger
	Config *config.Config
}

func newRootCmd(stack *kerrors.Stack) *cobra.Command {
	ctx := &appContext{Stack: stack}

	root := &cobra.Command{
		Use:           "ktsimctl",
		Short:         "AArch64 taint simulator and JOP kernel-call toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.BindFlags(root.PersistentFlags())

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(root.PersistentFlags())
		if err != nil {
			return err
		}
		ctx.Config = cfg

		var fileWriter *os.File
		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return kerrors.New(kerrors.IO, "open log file: %s", err).WithPath(cfg.LogFile)
			}
			fileWriter = f
		}
		var opts klog.Options
		opts.Level = slog.LevelInfo
		if fileWriter != nil {
			opts.FileWriter = fileWriter
		}
		ctx.Log = klog.New(opts)
		return nil
	}

	root.AddCommand(newDisasmCmd(ctx))
	root.AddCommand(newScanCmd(ctx))
	root.AddCommand(newSymtabCmd(ctx))
	root.AddCommand(newCallCmd(ctx))

	return root
}
