package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/sharebnb/internal/listing"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListing prints a single listing in text format.
func printListing(w io.Writer, l *listing.Listing) {
	fmt.Fprintf(w, "Listing #%d\n", l.ID)
	fmt.Fprintf(w, "  Title:    %s\n", l.Title)
	fmt.Fprintf(w, "  Location: %s, %s, %s\n", l.City, l.State, l.Country)
	fmt.Fprintf(w, "  Price:    %s\n", formatPrice(l.Price))
	if l.Host != nil {
		fmt.Fprintf(w, "  Host:     %s %s (#%d)\n", l.Host.FirstName, l.Host.LastName, l.Host.ID)
	}
	if l.PhotoURL != "" {
		fmt.Fprintf(w, "  Photo:    %s\n", l.PhotoURL)
	}
	if l.Details != "" {
		fmt.Fprintf(w, "\n  %s\n", l.Details)
	}
}

// printListingTable prints listing summaries as a formatted table.
func printListingTable(out io.Writer, listings []*listing.Summary) error {
	if len(listings) == 0 {
		fmt.Fprintln(out, "No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tCITY\tPRICE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range listings {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			l.ID, truncate(l.Title, 40), l.City, formatPrice(l.Price)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d listings\n", len(listings))
	return nil
}

// formatPrice formats a nightly price with thousands separators, showing
// cents only when there are any.
func formatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', 2, 64)
	whole, cents, _ := strings.Cut(s, ".")

	if len(whole) > 3 {
		var parts []string
		for len(whole) > 3 {
			parts = append([]string{whole[len(whole)-3:]}, parts...)
			whole = whole[:len(whole)-3]
		}
		parts = append([]string{whole}, parts...)
		whole = strings.Join(parts, ",")
	}

	if cents == "00" {
		return "$" + whole
	}
	return "$" + whole + "." + cents
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
