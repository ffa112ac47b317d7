package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/talas-dev/talas/internal/client/optimistic"
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		cfgPath string
		verbose bool
		a       *app
	)

	root := &cobra.Command{
		Use:           "talas",
		Short:         "Talas portfolio feed client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			var err error
			a, err = newApp(cfgPath, verbose, out, errOut)
			return err
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (overrides TALAS_CONFIG env)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	// Команды получают app лениво: он создаётся в PersistentPreRunE.
	get := func() *app { return a }

	root.AddCommand(
		newFeedCmd(get),
		newProjectCmd(get),
		newToggleCmd(get, "like", "Like or unlike a project", func(p *optimistic.Protocol) toggler { return p.Likes() }),
		newToggleCmd(get, "bookmark", "Bookmark or unbookmark a project", func(p *optimistic.Protocol) toggler { return p.Bookmarks() }),
		newCommentsCmd(get),
		newCommentCmd(get),
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	return root
}
