package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/cart"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/collection"
	"github.com/shashiranjanraj/recordshop/pkg/rbac"
)

var cartsLive bool

var cartCmd = &cobra.Command{Use: "cart", Short: "Show and change your cart"}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootSignedIn(cmd.Context()); err != nil {
			return err
		}
		return printCart(shop.Cart.Current())
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <recordId>",
	Short: "Put one unit of a record in the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeCart(cmd.Context(), args, shop.Cart.AddToCart)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <recordId>",
	Short: "Take one unit of a record out of the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeCart(cmd.Context(), args, shop.Cart.RemoveFromCart)
	},
}

var cartSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reload the cart from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootSignedIn(ctx); err != nil {
			return err
		}
		if err := shop.Cart.Resync(ctx, shop.Session.Email()); err != nil {
			return err
		}
		return printCart(shop.Cart.Current())
	},
}

var cartEnableCmd = &cobra.Command{
	Use:   "enable [email]",
	Short: "Enable a cart (yours by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := targetEmail(args)
		if err != nil {
			return err
		}
		return shop.Cart.Enable(cmd.Context(), email)
	},
}

var cartDisableCmd = &cobra.Command{
	Use:   "disable [email]",
	Short: "Disable a cart (yours by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email, err := targetEmail(args)
		if err != nil {
			return err
		}
		if email == shop.Session.Email() {
			if err := shop.Boot(ctx); err != nil {
				return err
			}
		}
		return shop.Cart.Disable(ctx, email)
	},
}

var cartStatusCmd = &cobra.Command{
	Use:   "status [email]",
	Short: "Show whether a cart is enabled and how many items it holds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email, err := targetEmail(args)
		if err != nil {
			return err
		}
		enabled := shop.Cart.Status(ctx, email)
		count := shop.Details.ItemCount(ctx, email)
		return table(map[string]any{"email": email, "enabled": enabled, "items": count},
			[]string{"EMAIL", "ENABLED", "ITEMS"},
			[][]string{{email, strconv.FormatBool(enabled), strconv.Itoa(count)}})
	},
}

var cartDetailsCmd = &cobra.Command{
	Use:   "details [email]",
	Short: "Show cart lines with live record data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email, err := targetEmail(args)
		if err != nil {
			return err
		}
		details, err := shop.Details.FetchCartDetails(ctx, email)
		if err != nil {
			return err
		}
		groups, err := shop.Catalog.ListGroups(ctx)
		if err != nil {
			groups = nil
		}
		details, err = shop.Details.Enrich(ctx, details, groups)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(details))
		for _, d := range details {
			rows = append(rows, []string{
				strconv.Itoa(d.RecordID), d.DisplayTitle(), d.GroupName,
				strconv.Itoa(d.Amount), money(d.Price), strconv.Itoa(d.Stock),
			})
		}
		return table(details, []string{"RECORD", "TITLE", "GROUP", "QTY", "PRICE", "STOCK"}, rows)
	},
}

var cartIncCmd = &cobra.Command{
	Use:   "inc <recordId>",
	Short: "Raise a line's quantity by one and reserve the stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stepLine(cmd.Context(), args, true)
	},
}

var cartDecCmd = &cobra.Command{
	Use:   "dec <recordId>",
	Short: "Lower a line's quantity by one and release the stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stepLine(cmd.Context(), args, false)
	},
}

// ─── carts (admin) ───────────────────────────────────────────────────────────

var cartsCmd = &cobra.Command{Use: "carts", Short: "Administer every user's cart"}

var cartsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List carts",
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		carts, err := shop.Cart.AllCarts(ctx)
		if err != nil {
			return err
		}
		if cartsLive {
			emails := collection.Map(carts, func(c models.Cart) string { return c.UserEmail })
			statuses, err := shop.Cart.Statuses(ctx, emails)
			if err != nil {
				return err
			}
			for email, enabled := range statuses {
				carts = cart.ApplyToggle(carts, email, enabled)
			}
		}

		rows := make([][]string, 0, len(carts))
		for _, c := range carts {
			rows = append(rows, []string{strconv.Itoa(c.ID), c.UserEmail, money(c.TotalPrice), strconv.FormatBool(c.Enabled)})
		}
		return table(carts, []string{"ID", "EMAIL", "TOTAL", "ENABLED"}, rows)
	},
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func bootSignedIn(ctx context.Context) error {
	if err := rbac.HasRole(shop.Session); err != nil {
		return signInHint(err)
	}
	return shop.Boot(ctx)
}

// targetEmail is the email argument or the signed-in user. Naming someone
// else takes the admin role.
func targetEmail(args []string) (string, error) {
	if err := rbac.HasRole(shop.Session); err != nil {
		return "", signInHint(err)
	}
	self := shop.Session.Email()
	if len(args) == 1 && args[0] != self {
		if err := rbac.HasRole(shop.Session, models.RoleAdmin); err != nil {
			return "", err
		}
		return args[0], nil
	}
	return self, nil
}

func changeCart(ctx context.Context, args []string, apply func(context.Context, models.Record) (models.CartState, error)) error {
	id, err := intArg(args, 0, "recordId")
	if err != nil {
		return err
	}
	if err := bootSignedIn(ctx); err != nil {
		return err
	}
	rec, err := shop.Catalog.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	st, err := apply(ctx, rec)
	if err != nil {
		return err
	}
	return printCart(st)
}

func stepLine(ctx context.Context, args []string, up bool) error {
	id, err := intArg(args, 0, "recordId")
	if err != nil {
		return err
	}
	email, err := targetEmail(nil)
	if err != nil {
		return err
	}
	details, err := shop.Details.FetchCartDetails(ctx, email)
	if err != nil {
		return err
	}
	for i := range details {
		if details[i].RecordID != id {
			continue
		}
		d := &details[i]
		if up {
			err = shop.Details.Increment(ctx, d)
		} else {
			err = shop.Details.Decrement(ctx, d)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Record %d quantity is now %d\n", id, d.Amount)
		return nil
	}
	return &api.Error{Kind: api.ErrNotFound, Op: "cart.step", Err: cart.ErrNotInCart}
}

func printCart(st models.CartState) error {
	if !st.Enabled {
		fmt.Println("This cart is disabled.")
	}
	rows := make([][]string, 0, len(st.Lines))
	for _, l := range st.Lines {
		if !l.InCart && l.Quantity == 0 {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(l.RecordID), l.Title, strconv.Itoa(l.Quantity), money(l.Price), money(l.Subtotal()),
		})
	}
	if err := table(st, []string{"RECORD", "TITLE", "QTY", "PRICE", "SUBTOTAL"}, rows); err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Printf("%d items, total %s\n", st.ItemCount, money(st.Total))
	}
	return nil
}

func init() {
	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartRemoveCmd, cartSyncCmd, cartEnableCmd,
		cartDisableCmd, cartStatusCmd, cartDetailsCmd, cartIncCmd, cartDecCmd)

	cartsListCmd.Flags().BoolVar(&cartsLive, "live", false, "ask the store for each cart's current status")
	cartsCmd.AddCommand(cartsListCmd)
}
