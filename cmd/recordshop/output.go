package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

var jsonOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}

// table prints rows under headers, or v as JSON with --json.
func table(v any, headers []string, rows [][]string) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	under := make([]string, len(headers))
	for i, h := range headers {
		under[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(under, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	return w.Flush()
}

func money(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, args[i])
	}
	return n, nil
}
