package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/extension"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/internal/config"
)

func newStatsCmd() *cobra.Command {
	var (
		gw     string
		hours  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show event counts by status and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := gatewayFlag(gw)
			if err != nil {
				return err
			}
			return withGate(cmd.Context(), false, func(_ *config.Config, ext *extension.Extension) error {
				stats, err := ext.Gate().EventStats(cmd.Context(), filter, hours)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&gw, "gateway", "", "Restrict to one gateway")
	cmd.Flags().IntVar(&hours, "hours", 0, "Trailing window in hours (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func newRecentCmd() *cobra.Command {
	var (
		gw     string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the newest webhook events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := gatewayFlag(gw)
			if err != nil {
				return err
			}
			return withGate(cmd.Context(), false, func(_ *config.Config, ext *extension.Extension) error {
				events, err := ext.Gate().RecentEvents(cmd.Context(), filter, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), events)
				}
				printEvents(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&gw, "gateway", "", "Restrict to one gateway")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func gatewayFlag(raw string) (gateway.Gateway, error) {
	if raw == "" {
		return "", nil
	}
	return gateway.Parse(raw)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, s *event.Stats) {
	fmt.Fprintf(w, "Since %s\n\n", s.Since.Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", s.Total)
	fmt.Fprintf(tw, "processing\t%d\n", s.Processing)
	fmt.Fprintf(tw, "processed\t%d\n", s.Processed)
	fmt.Fprintf(tw, "failed\t%d\n", s.Failed)
	fmt.Fprintf(tw, "skipped\t%d\n", s.Skipped)
	_ = tw.Flush()

	if len(s.ByType) == 0 {
		return
	}
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintln(w, "\nBy type:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range types {
		fmt.Fprintf(tw, "  %s\t%d\n", t, s.ByType[t])
	}
	_ = tw.Flush()
}

func printEvents(w io.Writer, events []*event.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No webhook events found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tGATEWAY\tEVENT ID\tTYPE\tSTATUS\tERROR")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Gateway, e.EventID, e.EventType, e.Status, e.Error)
	}
	_ = tw.Flush()
}
