package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ktsim/internal/kerrors"
	"ktsim/internal/symtab"
)

func newSymtabCmd(ctx *appContext) *cobra.Command {
	var lookup string

	cmd := &cobra.Command{
		Use:   "symtab <image>",
		Short: "build the symbol index and resolve one name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, f, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tab, err := symtab.FromImage(img, ctx.Config.Slide)
			if err != nil {
				return err
			}
			if lookup == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%d symbols indexed\n", tab.Len())
				return nil
			}

			if addr, err := strconv.ParseUint(lookup, 0, 64); err == nil {
				name, off, size, ok := tab.ResolveAddress(addr)
				if !ok {
					return kerrors.New(kerrors.Core, "no symbol covers 0x%x", addr)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "0x%x = %s+0x%x (size 0x%x)\n", addr, name, off, size)
				return nil
			}

			addr, size, ok := tab.ResolveSymbol(lookup)
			if !ok {
				return kerrors.New(kerrors.Core, "no symbol named %q", lookup)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = 0x%x (size 0x%x)\n", lookup, addr, size)
			return nil
		},
	}

	cmd.Flags().StringVar(&lookup, "lookup", "", "a symbol name or a hex/decimal address to resolve")
	return cmd
}
