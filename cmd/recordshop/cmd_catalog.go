package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/internal/catalog"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
)

// ─── genres ──────────────────────────────────────────────────────────────────

var genresCmd = &cobra.Command{Use: "genres", Short: "Browse and manage genres"}

var genresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		genres, err := shop.Catalog.ListGenres(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(genres))
		for _, g := range genres {
			rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, strconv.Itoa(g.TotalGroups)})
		}
		return table(genres, []string{"ID", "NAME", "GROUPS"}, rows)
	},
}

var genresAddCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Add a genre",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := shop.Catalog.AddGenre(cmd.Context(), models.Genre{Name: args[0]})
		if err != nil {
			return err
		}
		fmt.Printf("Added genre %d %s\n", g.ID, g.Name)
		return nil
	},
}

var genresUpdateCmd = &cobra.Command{
	Use:     "update <id> <name>",
	Short:   "Rename a genre",
	Args:    cobra.ExactArgs(2),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		return shop.Catalog.UpdateGenre(cmd.Context(), models.Genre{ID: id, Name: args[1]})
	},
}

var genresDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a genre",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		return shop.Catalog.DeleteGenre(cmd.Context(), id)
	},
}

// ─── groups ──────────────────────────────────────────────────────────────────

var groupFlags struct {
	name  string
	genre int
	photo string
}

var groupsCmd = &cobra.Command{Use: "groups", Short: "Browse and manage groups"}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := shop.Catalog.ListGroups(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, g.MusicGenreName, strconv.Itoa(g.TotalRecords)})
		}
		return table(groups, []string{"ID", "NAME", "GENRE", "RECORDS"}, rows)
	},
}

var groupsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a group",
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := shop.Catalog.AddGroup(cmd.Context(), groupInput(0))
		if err != nil {
			return err
		}
		fmt.Printf("Added group %d %s\n", g.ID, g.Name)
		return nil
	},
}

var groupsUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a group",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		_, err = shop.Catalog.UpdateGroup(cmd.Context(), groupInput(id))
		return err
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a group",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		return shop.Catalog.DeleteGroup(cmd.Context(), id)
	},
}

var groupsRecordsCmd = &cobra.Command{
	Use:   "records <id>",
	Short: "List a group's records with what you have in your cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		records, err := shop.Catalog.RecordsByGroup(ctx, id)
		if err != nil {
			return err
		}
		name, _ := shop.Catalog.GroupName(ctx, id)
		if name != "" {
			fmt.Println(name)
		}
		return printRecords(ctx, records)
	},
}

func groupInput(id int) catalog.GroupInput {
	return catalog.GroupInput{
		Group: models.Group{ID: id, Name: groupFlags.name, MusicGenreID: groupFlags.genre},
		Photo: groupFlags.photo,
	}
}

// ─── records ─────────────────────────────────────────────────────────────────

var recordFlags struct {
	title        string
	year         int
	price        float64
	stock        int
	group        int
	photo        string
	discontinued bool
}

var recordsCmd = &cobra.Command{Use: "records", Short: "Browse and manage records"}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := shop.Catalog.ListRecords(cmd.Context())
		if err != nil {
			return err
		}
		return printRecords(cmd.Context(), records)
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		r, err := shop.Catalog.GetRecord(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printRecords(cmd.Context(), []models.Record{r})
	},
}

var recordsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a record",
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := shop.Catalog.AddRecord(cmd.Context(), recordInput(cmd, 0))
		if err != nil {
			return err
		}
		fmt.Printf("Added record %d %s\n", r.ID, r.Title)
		return nil
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a record",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		_, err = shop.Catalog.UpdateRecord(cmd.Context(), recordInput(cmd, id))
		return err
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a record",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		return shop.Catalog.DeleteRecord(cmd.Context(), id)
	},
}

var recordsStockCmd = &cobra.Command{
	Use:     "stock <id> <delta>",
	Short:   "Change a record's stock by delta",
	Args:    cobra.ExactArgs(2),
	PreRunE: requireAdmin,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		delta, err := intArg(args, 1, "delta")
		if err != nil {
			return err
		}
		stock, err := shop.Details.UpdateStock(cmd.Context(), id, delta)
		if err != nil {
			return err
		}
		fmt.Printf("Record %d stock is now %d\n", id, stock)
		return nil
	},
}

func recordInput(cmd *cobra.Command, id int) catalog.RecordInput {
	r := models.Record{
		ID:           id,
		Title:        recordFlags.title,
		Price:        recordFlags.price,
		Stock:        recordFlags.stock,
		Discontinued: recordFlags.discontinued,
	}
	if cmd.Flags().Changed("year") {
		y := recordFlags.year
		r.Year = &y
	}
	if cmd.Flags().Changed("group") {
		g := recordFlags.group
		r.GroupID = &g
	}
	return catalog.RecordInput{Record: r, Photo: recordFlags.photo}
}

// printRecords lists records with the signed-in user's quantity of each.
func printRecords(ctx context.Context, records []models.Record) error {
	if shop.Session.Email() != "" {
		if err := shop.Boot(ctx); err != nil {
			logger.Warn("cart unavailable", "error", err)
		}
	}
	cart := shop.Cart.Current()
	for i := range records {
		if line, ok := cart.Line(records[i].ID); ok && line.Quantity > 0 {
			records[i].InCart = true
			records[i].Amount = line.Quantity
		}
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		in := ""
		if r.InCart {
			in = strconv.Itoa(r.Amount)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID), r.Title, r.DisplayGroup(), optInt(r.Year),
			money(r.Price), strconv.Itoa(r.Stock), in,
		})
	}
	return table(records, []string{"ID", "TITLE", "GROUP", "YEAR", "PRICE", "STOCK", "IN CART"}, rows)
}

func init() {
	genresCmd.AddCommand(genresListCmd, genresAddCmd, genresUpdateCmd, genresDeleteCmd)

	for _, c := range []*cobra.Command{groupsAddCmd, groupsUpdateCmd} {
		c.Flags().StringVar(&groupFlags.name, "name", "", "group name")
		c.Flags().IntVar(&groupFlags.genre, "genre", 0, "genre id")
		c.Flags().StringVar(&groupFlags.photo, "photo", "", "photo path on the storage disk")
	}
	groupsCmd.AddCommand(groupsListCmd, groupsAddCmd, groupsUpdateCmd, groupsDeleteCmd, groupsRecordsCmd)

	for _, c := range []*cobra.Command{recordsAddCmd, recordsUpdateCmd} {
		c.Flags().StringVar(&recordFlags.title, "title", "", "record title")
		c.Flags().IntVar(&recordFlags.year, "year", 0, "year of publication")
		c.Flags().Float64Var(&recordFlags.price, "price", 0, "price")
		c.Flags().IntVar(&recordFlags.stock, "stock", 0, "units in stock")
		c.Flags().IntVar(&recordFlags.group, "group", 0, "group id")
		c.Flags().StringVar(&recordFlags.photo, "photo", "", "photo path on the storage disk")
		c.Flags().BoolVar(&recordFlags.discontinued, "discontinued", false, "mark as discontinued")
	}
	recordsCmd.AddCommand(recordsListCmd, recordsGetCmd, recordsAddCmd, recordsUpdateCmd,
		recordsDeleteCmd, recordsStockCmd)
}
