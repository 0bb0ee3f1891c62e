// Package mcp provides the stdio MCP server exposing marketplace tools for
// agents. The tools drive the same screen controller as the shell.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/tradeshop/internal/app"
	"github.com/go-ports/tradeshop/internal/buildinfo"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/view"
)

const searchDescription = `Search the marketplace catalog. Matches item name, description and seller username, case-insensitively. An empty query lists every item. Requires a signed-in session (call shop_login first).` //nolint:lll

const cartAddDescription = `Add one unit of a catalog item to the cart. The item must be in the catalog returned by catalog_search. Adding the same item again increases its quantity.` //nolint:lll

// NewServer creates and registers all marketplace tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers can
// obtain a fully configured server without committing to the stdio transport.
func NewServer(a *app.App) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("tradeshop", buildinfo.Version)
	registerTools(s, a)
	return s
}

// Serve starts the stdio MCP server for home, blocking until stdin closes.
func Serve(ctx context.Context, home string) error {
	a, err := app.New(ctx, home)
	if err != nil {
		return fmt.Errorf("mcp: init app: %w", err)
	}
	defer a.Close()

	return mcpserver.ServeStdio(NewServer(a))
}

// registerTools wires every MCP tool into the server.
func registerTools(s *mcpserver.MCPServer, a *app.App) {
	s.AddTool(mcp.NewTool("shop_status",
		mcp.WithDescription("Report whether a session is active, the current screen and the cart size."),
	), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{
			"session": a.Whoami(),
			"header":  a.View.Header(),
		})
	})

	s.AddTool(mcp.NewTool("shop_login",
		mcp.WithDescription("Sign in to the marketplace. The session token is stored locally and reused by later calls."),
		mcp.WithString("username", mcp.Description("Account username."), mcp.Required()),
		mcp.WithString("password", mcp.Description("Account password."), mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleLogin(ctx, a, req)
	})

	s.AddTool(mcp.NewTool("shop_logout",
		mcp.WithDescription("Sign out and forget the stored session token."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := a.View.Logout(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"route": a.View.Route(), "authenticated": false})
	})

	s.AddTool(mcp.NewTool("catalog_search",
		mcp.WithDescription(searchDescription),
		mcp.WithString("query", mcp.Description("Search terms. Empty clears the search.")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearch(ctx, a, req)
	})

	s.AddTool(mcp.NewTool("cart_add",
		mcp.WithDescription(cartAddDescription),
		mcp.WithNumber("item_id", mcp.Description("Catalog item id."), mcp.Required()),
	), func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCartAdd(a, req)
	})

	s.AddTool(mcp.NewTool("cart_remove",
		mcp.WithDescription("Remove an item line from the cart. Unknown ids are ignored."),
		mcp.WithNumber("item_id", mcp.Description("Catalog item id."), mcp.Required()),
	), func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := itemID(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := a.View.RemoveFromCart(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return cartResult(a)
	})

	s.AddTool(mcp.NewTool("cart_view",
		mcp.WithDescription("Show the cart lines, item count and total."),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return cartResult(a)
	})

	s.AddTool(mcp.NewTool("cart_clear",
		mcp.WithDescription("Empty the cart without placing an order."),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := a.View.ClearCart(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return cartResult(a)
	})

	s.AddTool(mcp.NewTool("cart_checkout",
		mcp.WithDescription("Place the order for everything in the cart and empty it."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r, err := a.View.Checkout(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"units":   r.Units,
			"total":   roundTwo(r.Total),
			"lines":   r.Lines,
			"receipt": markdown.RenderReceipt(r),
		})
	})

	s.AddTool(mcp.NewTool("post_list",
		mcp.WithDescription("List the signed-in user's own item posts."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePostList(ctx, a)
	})

	s.AddTool(mcp.NewTool("post_create",
		mcp.WithDescription("Publish a new item post owned by the signed-in user."),
		mcp.WithString("item_name", mcp.Description("Item name."), mcp.Required()),
		mcp.WithString("item_description", mcp.Description("Item description.")),
		mcp.WithNumber("price", mcp.Description("Price, not negative.")),
		mcp.WithString("image_name", mcp.Description("Image URL.")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		item, err := a.View.CreatePost(ctx, models.ItemPost{
			ItemName:        req.GetString("item_name", ""),
			ItemDescription: req.GetString("item_description", ""),
			Price:           req.GetFloat("price", 0),
			ImageName:       req.GetString("image_name", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(item)
	})

	s.AddTool(mcp.NewTool("post_delete",
		mcp.WithDescription("Delete one of the signed-in user's item posts."),
		mcp.WithNumber("item_id", mcp.Description("Item post id."), mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := itemID(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := a.View.DeletePost(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"deleted": id})
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleLogin(ctx context.Context, a *app.App, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	creds := models.Credentials{
		Username: req.GetString("username", ""),
		Password: req.GetString("password", ""),
	}
	if err := a.View.Login(ctx, creds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.View.Wait()
	return jsonResult(map[string]any{
		"route":         a.View.Route(),
		"authenticated": a.Session.IsAuthenticated(),
	})
}

func handleSearch(ctx context.Context, a *app.App, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := a.View.Navigate(ctx, view.RouteDashboard); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.View.Wait()
	if err := a.View.Status().Err; err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := req.GetString("query", "")
	a.View.SetQuery(query)
	items, err := a.View.VisibleItems()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	all, err := a.View.Catalog()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"query":   query,
		"total":   len(all),
		"showing": len(items),
		"items":   itemsPayload(items),
	})
}

func handleCartAdd(a *app.App, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := itemID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := a.View.AddToCart(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return cartResult(a)
}

func handlePostList(ctx context.Context, a *app.App) (*mcp.CallToolResult, error) {
	if _, err := a.View.Navigate(ctx, view.RouteProfile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.View.Wait()
	if err := a.View.Status().Err; err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	posts, err := a.View.Posts()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"total": len(posts),
		"posts": itemsPayload(posts),
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func cartResult(a *app.App) (*mcp.CallToolResult, error) {
	lines, err := a.View.CartLines()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"count": a.Cart.Count(),
		"total": roundTwo(a.Cart.Total()),
		"lines": lines,
	})
}

// itemID reads the required item_id argument.
func itemID(req mcp.CallToolRequest) (models.ItemID, error) {
	n := req.GetInt("item_id", 0)
	if n <= 0 {
		return 0, fmt.Errorf("item_id must be a positive integer")
	}
	return models.ItemID(n), nil
}

// itemsPayload flattens items for tool output; seller is reduced to a name.
func itemsPayload(items []models.CatalogItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"id":          it.ID,
			"name":        it.ItemName,
			"description": it.ItemDescription,
			"price":       roundTwo(it.Price),
			"seller":      it.SellerName(),
		})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// roundTwo rounds f to 2 decimal places.
func roundTwo(f float64) float64 {
	return math.Round(f*100) / 100
}
