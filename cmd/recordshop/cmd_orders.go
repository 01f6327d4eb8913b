package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/internal/models"
)

var ordersCmd = &cobra.Command{Use: "orders", Short: "Place and list orders"}

var ordersCreateCmd = &cobra.Command{
	Use:   "create <paymentMethod>",
	Short: "Order everything in your cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootSignedIn(ctx); err != nil {
			return err
		}
		o, err := shop.Checkout(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Order %d placed: %s paid by %s\n", o.ID, money(o.Total), o.PaymentMethod)
		return nil
	},
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := targetEmail(nil)
		if err != nil {
			return err
		}
		list, err := shop.Orders.ListByUser(cmd.Context(), email)
		if err != nil {
			return err
		}
		return printOrders(list)
	},
}

var ordersAllCmd = &cobra.Command{
	Use:     "all",
	Short:   "List every order",
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := shop.Orders.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		return printOrders(list)
	},
}

func printOrders(list []models.Order) error {
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		items := 0
		for _, d := range o.Details {
			items += d.Amount
		}
		rows = append(rows, []string{
			strconv.Itoa(o.ID), o.Date.Format(time.DateTime), o.UserEmail,
			o.PaymentMethod, strconv.Itoa(items), money(o.Total),
		})
	}
	return table(list, []string{"ID", "DATE", "EMAIL", "PAYMENT", "ITEMS", "TOTAL"}, rows)
}

// ─── users (admin) ───────────────────────────────────────────────────────────

var usersCmd = &cobra.Command{Use: "users", Short: "Administer accounts"}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts",
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := shop.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, u := range list {
			rows = append(rows, []string{u.Email, u.Name, u.Role})
		}
		return table(list, []string{"EMAIL", "NAME", "ROLE"}, rows)
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:     "delete <email>",
	Short:   "Delete an account",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		return shop.Users.Delete(cmd.Context(), args[0])
	},
}

// ─── prefs ───────────────────────────────────────────────────────────────────

var prefsCmd = &cobra.Command{Use: "prefs", Short: "Local preferences"}

var prefsDarkModeCmd = &cobra.Command{
	Use:       "dark-mode [on|off]",
	Short:     "Show or set dark mode",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 1 {
			if err := shop.Session.SetDarkMode(ctx, args[0] == "on"); err != nil {
				return err
			}
		}
		state := "off"
		if shop.Session.DarkMode(ctx) {
			state = "on"
		}
		fmt.Println("dark mode", state)
		return nil
	},
}

func init() {
	ordersCmd.AddCommand(ordersCreateCmd, ordersListCmd, ordersAllCmd)
	usersCmd.AddCommand(usersListCmd, usersDeleteCmd)
	prefsCmd.AddCommand(prefsDarkModeCmd)
}
