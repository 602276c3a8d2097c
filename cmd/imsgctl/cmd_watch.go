package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchConversation string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchConversation, "conversation", "", "only messages of this conversation GUID")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new messages until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := c.Watch(ctx, watchConversation)
		if err != nil {
			return err
		}
		for evt, err := range events {
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(evt)
				continue
			}
			m := evt.Message
			fmt.Printf("%s [%s] %s: %s\n", formatUnixMilli(m.DateCreated), m.ConversationGUID, senderLabel(m), deref(m.Text))
		}
		return nil
	},
}
