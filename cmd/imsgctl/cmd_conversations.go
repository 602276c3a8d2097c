package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/client"
	"github.com/spf13/cobra"
)

var (
	convLimit        int
	convOffset       int
	convParticipants bool
	convLast         bool
)

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.AddCommand(conversationsListCmd, conversationsGetCmd)

	for _, cmd := range []*cobra.Command{conversationsListCmd, conversationsGetCmd} {
		cmd.Flags().BoolVar(&convParticipants, "participants", false, "include participants")
		cmd.Flags().BoolVar(&convLast, "last", false, "include the last message")
	}
	conversationsListCmd.Flags().IntVar(&convLimit, "limit", 0, "maximum conversations (daemon default when 0)")
	conversationsListCmd.Flags().IntVar(&convOffset, "offset", 0, "conversations to skip")
}

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"chats"},
	Short:   "Inspect conversations",
}

func conversationOptions() chatdb.ConversationOptions {
	return chatdb.ConversationOptions{
		WithParticipants: convParticipants,
		WithLastMessage:  convLast,
		LastMessage:      chatdb.MessageOptions{WithSender: true},
	}
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			convs, err := c.Conversations(ctx, client.ListParams{
				ConversationOptions: conversationOptions(),
				Limit:               convLimit,
				Offset:              convOffset,
			})
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(convs)
				return nil
			}
			if len(convs) == 0 {
				fmt.Println("No conversations found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROWID\tGUID\tSERVICE\tNAME\tPARTICIPANTS")
			for _, conv := range convs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
					conv.RowID, conv.GUID, deref(conv.ServiceName), conversationName(conv), len(conv.Participants))
			}
			return w.Flush()
		})
	},
}

var conversationsGetCmd = &cobra.Command{
	Use:   "get <guid>",
	Short: "Show one conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			conv, err := c.Conversation(ctx, args[0], conversationOptions())
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(conv)
				return nil
			}
			fmt.Printf("GUID:       %s\n", conv.GUID)
			fmt.Printf("Name:       %s\n", conversationName(conv))
			fmt.Printf("Service:    %s\n", deref(conv.ServiceName))
			fmt.Printf("Archived:   %v\n", conv.IsArchived)
			for _, p := range conv.Participants {
				fmt.Printf("Participant: %s (%s)\n", p.Address, p.Service)
			}
			if conv.LastMessage != nil {
				fmt.Printf("Last:       %s %s\n", formatUnixMilli(conv.LastMessage.DateCreated), deref(conv.LastMessage.Text))
			}
			return nil
		})
	},
}

func conversationName(conv chatdb.Conversation) string {
	if name := deref(conv.DisplayName); name != "" {
		return name
	}
	return conv.ChatIdentifier
}
