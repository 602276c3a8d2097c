package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/client"
	"github.com/spf13/cobra"
)

var (
	msgLimit       int
	msgOffset      int
	msgSort        string
	msgAfter       string
	msgBefore      string
	msgAttachments bool
)

func init() {
	rootCmd.AddCommand(messagesCmd, attachmentCmd)
	messagesCmd.AddCommand(messagesListCmd, messagesGetCmd, messagesLastCmd)
	attachmentCmd.AddCommand(attachmentGetCmd)

	messagesListCmd.Flags().IntVar(&msgLimit, "limit", 0, "maximum messages (daemon default when 0)")
	messagesListCmd.Flags().IntVar(&msgOffset, "offset", 0, "messages to skip")
	messagesListCmd.Flags().StringVar(&msgSort, "sort", "DESC", "ASC or DESC by creation time")
	messagesListCmd.Flags().StringVar(&msgAfter, "after", "", "only messages after this RFC 3339 time")
	messagesListCmd.Flags().StringVar(&msgBefore, "before", "", "only messages before this RFC 3339 time")
	for _, cmd := range []*cobra.Command{messagesListCmd, messagesGetCmd} {
		cmd.Flags().BoolVar(&msgAttachments, "attachments", false, "include attachments")
	}
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Inspect messages",
}

var messagesListCmd = &cobra.Command{
	Use:   "list <conversation-guid>",
	Short: "List a conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sort, err := chatdb.ParseSortOrder(msgSort)
		if err != nil {
			return err
		}
		after, err := parseTime(msgAfter)
		if err != nil {
			return fmt.Errorf("--after: %w", err)
		}
		before, err := parseTime(msgBefore)
		if err != nil {
			return fmt.Errorf("--before: %w", err)
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			msgs, err := c.ConversationMessages(ctx, args[0], client.MessageParams{
				MessageOptions: chatdb.MessageOptions{WithSender: true, WithAttachments: msgAttachments},
				Limit:          msgLimit,
				Offset:         msgOffset,
				Sort:           sort,
				After:          after,
				Before:         before,
			})
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(msgs)
				return nil
			}
			if len(msgs) == 0 {
				fmt.Println("No messages found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tFROM\tTEXT")
			for _, m := range msgs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", formatUnixMilli(m.DateCreated), senderLabel(m), deref(m.Text))
			}
			return w.Flush()
		})
	},
}

var messagesGetCmd = &cobra.Command{
	Use:   "get <guid>",
	Short: "Show one message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			m, err := c.Message(ctx, args[0], chatdb.MessageOptions{WithSender: true, WithAttachments: msgAttachments})
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(m)
				return nil
			}
			printMessage(m)
			return nil
		})
	},
}

var messagesLastCmd = &cobra.Command{
	Use:   "last <conversation-rowid>",
	Short: "Show a conversation's last message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rowID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rowid %q: %w", args[0], err)
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			m, err := c.LastMessage(ctx, rowID)
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(m)
				return nil
			}
			printMessage(m)
			return nil
		})
	},
}

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Inspect attachments",
}

var attachmentGetCmd = &cobra.Command{
	Use:   "get <guid>",
	Short: "Show one attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			a, err := c.Attachment(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonFlag {
				outputJSON(a)
				return nil
			}
			fmt.Printf("GUID:     %s\n", a.GUID)
			fmt.Printf("Name:     %s\n", a.TransferName)
			fmt.Printf("Type:     %s\n", deref(a.MIMEType))
			fmt.Printf("Bytes:    %d\n", a.TotalBytes)
			fmt.Printf("File:     %s\n", deref(a.Filename))
			if a.Width != nil && a.Height != nil {
				fmt.Printf("Size:     %dx%d\n", *a.Width, *a.Height)
			}
			return nil
		})
	},
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func senderLabel(m chatdb.Message) string {
	switch {
	case m.IsFromMe:
		return "me"
	case m.Sender != nil:
		return m.Sender.Address
	default:
		return "?"
	}
}

func printMessage(m chatdb.Message) {
	fmt.Printf("GUID:         %s\n", m.GUID)
	fmt.Printf("Conversation: %s\n", m.ConversationGUID)
	fmt.Printf("From:         %s\n", senderLabel(m))
	fmt.Printf("Date:         %s\n", formatUnixMilli(m.DateCreated))
	fmt.Printf("Service:      %s\n", deref(m.Service))
	fmt.Printf("Text:         %s\n", deref(m.Text))
	for _, a := range m.Attachments {
		fmt.Printf("Attachment:   %s (%s)\n", a.TransferName, a.GUID)
	}
}
