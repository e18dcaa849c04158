package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/savantbuild/archiver"
)

func newLsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <archive>",
		Short: "List the entries of an archive in stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archiver.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			newLogger(cmd, v).Debug("listed archive", "path", args[0], "entries", len(entries))

			if !v.GetBool("long") {
				for _, e := range entries {
					fmt.Fprintln(cmd.OutOrStdout(), e.Name)
				}
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 1, ' ', 0)
			for _, e := range entries {
				mode := e.Mode.String()
				if e.IsDir {
					mode = "d" + e.Mode.Perm().String()[1:]
				}
				owner := e.Owner
				if owner == "" {
					owner = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", mode, owner, e.Size, e.ModTime.Format(time.DateTime), e.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolP("long", "l", false, "show mode, owner, size and modification time")
	return cmd
}
