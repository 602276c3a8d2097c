package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(statusCmd, countCmd, servicesCmd, statsCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			st, err := c.Status(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(st)
				return nil
			}
			fmt.Printf("Session: %s\n", st.Session)
			fmt.Printf("Status:  %s (since %s)\n", st.State, formatUnixMilli(st.StateSinceUnixMs))
			fmt.Printf("Uptime:  %s\n", (time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second))
			fmt.Printf("Store:   %s\n", st.StorePath)
			fmt.Printf("Cursor:  %s\n", formatUnixMilli(st.CursorUnixMs))
			return nil
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count <conversation|message|participant|attachment>",
	Short: "Count rows of one entity kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chatdb.ParseEntityKind(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			n, err := c.Count(ctx, kind)
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(map[string]any{"kind": kind, "count": n})
				return nil
			}
			fmt.Println(n)
			return nil
		})
	},
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Show conversation counts per service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			b, err := c.ServiceBreakdown(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(b)
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tCONVERSATIONS")
			for _, name := range slices.Sorted(maps.Keys(b.Observed)) {
				fmt.Fprintf(w, "%s\t%d\n", name, b.Observed[name])
			}
			fmt.Fprintf(w, "total\t%d\n", b.Total)
			return w.Flush()
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count every entity kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := []chatdb.EntityKind{chatdb.KindConversation, chatdb.KindMessage, chatdb.KindParticipant, chatdb.KindAttachment}
		return withClient(func(ctx context.Context, c *client.Client) error {
			counts := make([]int64, len(kinds))
			g, ctx := errgroup.WithContext(ctx)
			for i, kind := range kinds {
				g.Go(func() error {
					n, err := c.Count(ctx, kind)
					if err != nil {
						return fmt.Errorf("count %s: %w", kind, err)
					}
					counts[i] = n
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if jsonFlag {
				out := make(map[string]int64, len(kinds))
				for i, kind := range kinds {
					out[string(kind)] = counts[i]
				}
				outputJSON(out)
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tCOUNT")
			for i, kind := range kinds {
				fmt.Fprintf(w, "%s\t%d\n", kind, counts[i])
			}
			return w.Flush()
		})
	},
}
