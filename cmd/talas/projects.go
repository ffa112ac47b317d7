package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/talas-dev/talas/internal/client/optimistic"
	"github.com/talas-dev/talas/internal/models"
)

// toggler — общий вид переключателей лайка и закладки.
type toggler interface {
	Toggle(ctx context.Context, id uuid.UUID) (optimistic.Report, error)
	Set(ctx context.Context, id uuid.UUID, want bool) (optimistic.Report, error)
}

func newFeedCmd(get func() *app) *cobra.Command {
	var p models.ListParams

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()

			page, err := a.proto.LoadFeed(cmd.Context(), p)
			if err != nil {
				return err
			}

			for _, pr := range page.Projects {
				if v, ok := a.proto.View(pr.ID); ok {
					pr = v
				}
				printProject(a.out, pr)
			}

			if page.NextPageToken != "" {
				fmt.Fprintf(a.out, "next page: --page-token %s\n", page.NextPageToken)
			}

			return nil
		},
	}

	cmd.Flags().Int32Var(&p.PageSize, "page-size", 0, "projects per page (0 = server default)")
	cmd.Flags().StringVar(&p.PageToken, "page-token", "", "token from the previous page")

	return cmd
}

func newProjectCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "project <project-id>",
		Short: "Show a project card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			pr, err := a.proto.LoadProject(cmd.Context(), id)
			if err != nil {
				return err
			}

			printProject(a.out, *pr)
			if pr.Description != "" {
				fmt.Fprintf(a.out, "\n%s\n", pr.Description)
			}

			return nil
		},
	}
}

// newToggleCmd — like/bookmark: переключение от текущего состояния в кэше
// или принудительное --set on|off.
func newToggleCmd(get func() *app, name, short string, pick func(*optimistic.Protocol) toggler) *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   name + " <project-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			var want *bool
			switch set {
			case "":
			case "on", "off":
				v := set == "on"
				want = &v
			default:
				return fmt.Errorf("--set must be on or off, got %q", set)
			}

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.proto.LoadProject(ctx, id); err != nil {
				return err
			}

			t := pick(a.proto)

			var r optimistic.Report
			if want == nil {
				r, err = t.Toggle(ctx, id)
			} else {
				r, err = t.Set(ctx, id, *want)
			}
			if err := a.settle(r, err); err != nil {
				return err
			}

			if pr, ok := a.proto.View(id); ok {
				printProject(a.out, pr)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "force state: on or off (default: toggle)")

	return cmd
}

func printProject(w io.Writer, p models.Project) {
	var flags []string
	if p.IsLiked {
		flags = append(flags, "liked")
	}
	if p.IsBookmarked {
		flags = append(flags, "bookmarked")
	}

	line := fmt.Sprintf("%s  %s  likes=%d comments=%d", p.ID, p.Title, p.CountLikes, p.CountComments)
	if len(flags) > 0 {
		line += "  [" + strings.Join(flags, ",") + "]"
	}

	fmt.Fprintln(w, line)
}

func parseProjectID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("project id must be a uuid, got %q", raw)
	}

	return id, nil
}
