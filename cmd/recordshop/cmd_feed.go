package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/config"
	"github.com/shashiranjanraj/recordshop/internal/feed"
	"github.com/shashiranjanraj/recordshop/pkg/middleware"
)

var (
	feedAddr      string
	feedRateLimit int
)

// recordshop feed: serve live stock and cart state on FEED_ADDR.
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Serve live stock and cart state over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addr := feedAddr
		if addr == "" {
			addr = config.FeedAddr()
		}

		opts := feed.Options{Stock: shop.Stock, Cart: shop.Cart, Origins: config.FeedOrigins()}
		if feedRateLimit > 0 {
			opts.Limiter = middleware.NewLimiter(feedRateLimit, time.Minute)
		}
		shop.Start(ctx)

		fmt.Printf("Feed listening on %s. Press Ctrl+C to stop.\n", addr)
		return feed.New(opts).Run(ctx, addr)
	},
}

// recordshop feed routes: print the feed's route table.
var feedRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the feed server's routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range feed.New(feed.Options{}).Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

// recordshop watch: print stock and cart changes as they happen.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print stock and cart changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stock := shop.Stock.Subscribe()
		defer stock.Unsubscribe()
		carts := shop.Cart.Subscribe()
		defer carts.Unsubscribe()

		shop.Start(ctx)
		fmt.Println("Watching. Press Ctrl+C to stop.")

		for {
			select {
			case <-ctx.Done():
				return nil
			case u, ok := <-stock.C():
				if !ok {
					return nil
				}
				fmt.Printf("%s stock  record=%d stock=%d\n", time.Now().Format(time.TimeOnly), u.RecordID, u.NewStock)
			case st, ok := <-carts.C():
				if !ok {
					return nil
				}
				fmt.Printf("%s cart   %s items=%d total=%s enabled=%t\n",
					time.Now().Format(time.TimeOnly), st.Email, st.ItemCount, money(st.Total), st.Enabled)
			}
		}
	},
}

func init() {
	feedCmd.Flags().StringVar(&feedAddr, "addr", "", "listen address (default FEED_ADDR)")
	feedCmd.Flags().IntVar(&feedRateLimit, "stream-limit", 30, "stream connections per client per minute, 0 for none")
	feedCmd.AddCommand(feedRoutesCmd)
}
