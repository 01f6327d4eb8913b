package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/rbac"
)

var (
	authPassword string
	authName     string
)

// recordshop login <email> --password ...
var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and remember the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		next, err := shop.Session.Login(ctx, models.Credentials{Email: args[0], Password: authPassword})
		if err != nil {
			return err
		}
		if err := shop.Boot(ctx); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s). Start at %s\n", shop.Session.Email(), roleLabel(), next)
		return nil
	},
}

// recordshop register <email> --name ... --password ...
var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rbac.Guest(shop.Session); err != nil {
			return fmt.Errorf("%w: run recordshop logout first", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		err := shop.Session.Register(cmd.Context(), models.Registration{
			Name:     authName,
			Email:    args[0],
			Password: authPassword,
		})
		if err != nil {
			return err
		}
		fmt.Println("Account created. Sign in with: recordshop login", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session and the local cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := shop.Session.Email()
		if email == "" {
			fmt.Println("Not signed in.")
			return nil
		}
		if err := shop.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out", email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		id := shop.Session.Identity()
		if id.Email == "" {
			fmt.Println("Not signed in.")
			return nil
		}
		cartID := ""
		if n, ok := shop.Session.CartID(); ok {
			cartID = strconv.Itoa(n)
		}
		return table(id, []string{"EMAIL", "ROLE", "CART"}, [][]string{{id.Email, roleLabel(), cartID}})
	},
}

func roleLabel() string {
	if r := shop.Session.Role(); r != "" {
		return r
	}
	return "customer"
}

func init() {
	loginCmd.Flags().StringVarP(&authPassword, "password", "p", "", "account password")
	registerCmd.Flags().StringVarP(&authPassword, "password", "p", "", "account password (6 characters or more)")
	registerCmd.Flags().StringVar(&authName, "name", "", "display name")
}

func requireAdmin(cmd *cobra.Command, args []string) error {
	return signInHint(rbac.HasRole(shop.Session, models.RoleAdmin))
}

func signInHint(err error) error {
	if errors.Is(err, rbac.ErrSignedOut) {
		return fmt.Errorf("%w: run recordshop login first", err)
	}
	return err
}
