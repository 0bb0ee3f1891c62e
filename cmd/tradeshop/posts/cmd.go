// Package postscmd implements the `tradeshop posts` command group: the
// profile screen's list and editor for the signed-in user's item posts.
package postscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/catalog"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/view"
)

// Command implements `tradeshop posts`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the posts command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "posts",
		Short: "List or manage your item posts",
		Args:  cobra.NoArgs,
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		newAdd(ctx),
		newUpdate(ctx),
		newDelete(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.OpenApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := shared.Enter(cmd.Context(), a, view.RouteProfile); err != nil {
		return err
	}
	posts, err := a.View.Posts()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), markdown.RenderItems(posts))
	return nil
}

// postFlags registers the editable item fields on cmd.
func postFlags(cmd *cobra.Command, p *models.ItemPost) {
	f := cmd.Flags()
	f.StringVar(&p.ItemName, "name", "", "Item name")
	f.StringVar(&p.ItemDescription, "description", "", "Item description")
	f.Float64Var(&p.Price, "price", 0, "Price")
	f.StringVar(&p.ImageName, "image", "", "Image URL")
}

// ---------------------------------------------------------------------------
// posts add
// ---------------------------------------------------------------------------

func newAdd(ctx *shared.Context) *cobra.Command {
	var post models.ItemPost
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a new item post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := ctx.OpenApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.View.CreatePost(cmd.Context(), post)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted: %s (id: %s)\n", created.ItemName, created.ID)
			return nil
		},
	}
	postFlags(cmd, &post)
	return cmd
}

// ---------------------------------------------------------------------------
// posts update
// ---------------------------------------------------------------------------

// newUpdate edits a post in place. Fields whose flags are not given keep their
// current values.
func newUpdate(ctx *shared.Context) *cobra.Command {
	var edit models.ItemPost
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Edit one of your item posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseItemID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.OpenApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := shared.Enter(cmd.Context(), a, view.RouteProfile); err != nil {
				return err
			}
			posts, err := a.View.Posts()
			if err != nil {
				return err
			}
			current, ok := catalog.Find(posts, id)
			if !ok {
				return fmt.Errorf("%w: %s", view.ErrItemNotFound, id)
			}

			post := models.ItemPost{
				ItemName:        current.ItemName,
				ItemDescription: current.ItemDescription,
				Price:           current.Price,
				ImageName:       current.ImageName,
			}
			f := cmd.Flags()
			if f.Changed("name") {
				post.ItemName = edit.ItemName
			}
			if f.Changed("description") {
				post.ItemDescription = edit.ItemDescription
			}
			if f.Changed("price") {
				post.Price = edit.Price
			}
			if f.Changed("image") {
				post.ImageName = edit.ImageName
			}

			if err := a.View.UpdatePost(cmd.Context(), id, post); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated post %s\n", id)
			return nil
		},
	}
	postFlags(cmd, &edit)
	return cmd
}

// ---------------------------------------------------------------------------
// posts delete
// ---------------------------------------------------------------------------

func newDelete(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete one of your item posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseItemID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.OpenApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.View.DeletePost(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s\n", id)
			return nil
		},
	}
}
