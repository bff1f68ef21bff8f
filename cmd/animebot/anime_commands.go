package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animebot/internal/api"
)

func newAnimeCommand(ctx *commandContext) *cobra.Command {
	animeCmd := &cobra.Command{
		Use:   "anime",
		Short: "Query the running daemon's title cache",
	}
	animeCmd.AddCommand(newAnimeSuggestCommand(ctx))
	animeCmd.AddCommand(newAnimeDetailsCommand(ctx))
	animeCmd.AddCommand(newAnimeTitlesCommand(ctx))
	return animeCmd
}

func newAnimeSuggestCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "suggest [partial title]",
		Short: "Show autocomplete suggestions for a partial title",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Suggestions(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return explainAPIError(err, ctx.apiAddress())
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Choices) == 0 {
				fmt.Fprintln(out, "No matching titles")
				return nil
			}
			for _, choice := range resp.Choices {
				fmt.Fprintln(out, choice.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newAnimeDetailsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "details <title>",
		Short: "Show details for a title in the current top list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			card, err := client.Details(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return explainAPIError(err, ctx.apiAddress())
			}
			if jsonOut {
				return writeJSON(cmd, card)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCard(*card))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newAnimeTitlesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List cached titles without triggering a refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Titles(cmd.Context(), limit)
			if err != nil {
				return explainAPIError(err, ctx.apiAddress())
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if resp.Total == 0 {
				fmt.Fprintln(out, "Title cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(resp.Titles))
			for i, title := range resp.Titles {
				rows = append(rows, []string{strconv.Itoa(i + 1), title})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Title"}, rows, []columnAlignment{alignRight, alignLeft}))
			fmt.Fprintf(out, "Showing %d of %d titles (refreshed %s)\n", len(resp.Titles), resp.Total, displayTime(resp.LastRefreshed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum titles to list (0 for all)")
	return cmd
}

func formatCard(card api.AnimeCard) string {
	var b strings.Builder
	b.WriteString(card.Title + "\n")
	if card.URL != "" {
		b.WriteString(card.URL + "\n")
	}
	b.WriteString("\n" + card.Summary + "\n")
	b.WriteString("Status: " + card.Status + "\n")
	b.WriteString("\n" + card.Description + "\n")
	if card.Thumbnail != "" {
		b.WriteString("\nImage: " + card.Thumbnail + "\n")
	}
	return b.String()
}

func displayTime(value string) string {
	if value == "" {
		return "never"
	}
	parsed, err := api.ParseTime(value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}
