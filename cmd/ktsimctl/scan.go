package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ktsim/internal/gadget"
	"ktsim/internal/kerrors"
)

func newScanCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>",
		Short: "locate every gadget the JOP strategies need",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, f, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			segs, err := img.ExecutableSegments()
			if err != nil {
				return err
			}

			loc := gadget.New()
			loc.Scan(segs, ctx.Config.Slide, nil)

			for _, g := range loc.Gadgets {
				if g.Resolved {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s 0x%x\n", g.Name, g.Address)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s (unresolved)\n", g.Name)
					ctx.Stack.Push(kerrors.New(kerrors.FunctionalityUnavailable, "gadget %s not found in %s", g.Name, args[0]))
				}
			}
			return nil
		},
	}
}
