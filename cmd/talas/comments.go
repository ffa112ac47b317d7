package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/talas-dev/talas/internal/commenttree"
	"github.com/talas-dev/talas/internal/models"
)

func newCommentsCmd(get func() *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "comments <project-id>",
		Short: "Show the comment tree of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			if output != "text" && output != "yaml" {
				return fmt.Errorf("--output must be text or yaml, got %q", output)
			}

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			policy, err := commenttree.ParseDanglingPolicy(a.cfg.CommentTree.Dangling)
			if err != nil {
				return err
			}

			list, err := a.proto.LoadComments(cmd.Context(), id)
			if err != nil {
				return err
			}

			res := commenttree.New(
				commenttree.WithDanglingPolicy(policy),
				commenttree.WithLogger(a.log),
			).Build(list)

			if len(res.Cycles) > 0 {
				fmt.Fprintf(a.errOut, "warning: %d comment(s) hidden: parent_id cycle\n", len(res.Cycles))
			}

			if output == "yaml" {
				return renderYAML(a.out, res.Roots, a.cfg.CommentTree.MaxDepth)
			}

			renderText(a.out, res.Roots, a.cfg.CommentTree.MaxDepth)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")

	return cmd
}

func newCommentCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add, edit or delete comments",
	}

	var parent string

	add := &cobra.Command{
		Use:   "add <project-id> <text>...",
		Short: "Post a comment or a reply (--parent)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			created, r, err := a.proto.Comments().Create(cmd.Context(), id, models.CreateCommentRequest{
				ParentID: strings.TrimSpace(parent),
				Content:  strings.Join(args[1:], " "),
			})
			if err := a.settle(r, err); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "created %s\n", created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&parent, "parent", "", "id of the comment to reply to")

	edit := &cobra.Command{
		Use:   "edit <project-id> <comment-id> <text>...",
		Short: "Replace the text of your comment",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.proto.LoadComments(ctx, id); err != nil {
				return err
			}

			r, err := a.proto.Comments().Edit(ctx, id, args[1], strings.Join(args[2:], " "))
			if err := a.settle(r, err); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "edited %s\n", args[1])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <project-id> <comment-id>",
		Short: "Delete your comment; replies stay in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.proto.LoadComments(ctx, id); err != nil {
				return err
			}

			r, err := a.proto.Comments().Delete(ctx, id, args[1])
			if err := a.settle(r, err); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "deleted %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(add, edit, del)

	return cmd
}
