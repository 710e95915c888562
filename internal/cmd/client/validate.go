package client

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/joelverhagen/json-append-log/internal/reader"
	"github.com/spf13/cobra"
)

var (
	addedLine   = color.New(color.FgGreen)
	removedLine = color.New(color.FgRed)
)

// newValidateCommand constructs the `validate` command.
func newValidateCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Fetch a catalog index and its newest pages and check them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.Config
			url, _ := cmd.Flags().GetString("url")
			strict, _ := cmd.Flags().GetBool("strict")
			pages, _ := cmd.Flags().GetInt("pages")
			if url == "" {
				url = cfg.CatalogIndexURL
			}

			c := reader.New(
				reader.WithStrict(strict),
				reader.WithTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second),
				reader.WithLogger(g.Logger.WithComponent("validate")),
			)
			rep, err := c.Validate(cmd.Context(), url, pages)
			if err != nil {
				var mismatch *reader.RoundTripMismatchError
				if errors.As(err, &mismatch) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s does not round trip:\n", mismatch.URL)
					printDiff(cmd.ErrOrStderr(), mismatch.Lines)
					return fmt.Errorf("round trip mismatch in %s", mismatch.URL)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "index: %s (%d pages)\n", url, rep.IndexCount)
			fmt.Fprintf(out, "checked: %d pages, %d leaves\n", rep.Pages, rep.Leaves)
			if strict {
				fmt.Fprintln(out, "round trip: ok")
			}
			return nil
		},
	}
	cmd.Flags().String("url", "", "Catalog index URL (http, https or file; default from config)")
	cmd.Flags().Bool("strict", false, "Require every document to re-encode to identical bytes")
	cmd.Flags().Int("pages", 1, "Newest pages to check; negative checks every page")
	return cmd
}

// printDiff writes diff lines, coloured when out is a terminal.
func printDiff(out io.Writer, lines []reader.DiffLine) {
	for _, l := range lines {
		switch l.Kind {
		case '+':
			addedLine.Fprintf(out, "+ %s\n", l.Text)
		case '-':
			removedLine.Fprintf(out, "- %s\n", l.Text)
		default:
			fmt.Fprintf(out, "%c %s\n", l.Kind, l.Text)
		}
	}
}
