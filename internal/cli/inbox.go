package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

func newInboxCmd(o *options) *cobra.Command {
	var markRead bool
	cmd := &cobra.Command{
		Use:   "inbox [conversation-id]",
		Short: "List conversations or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				resp, err := c.Inbox(cmd.Context())
				if err != nil {
					return err
				}
				if o.jsonOut {
					return printJSON(w, resp)
				}
				fmt.Fprintf(w, "%d unread\n", resp.Unread)
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUNREAD\tWITH\tSUBJECT\tLAST")
				for _, conv := range resp.Conversations {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", conv.ID, conv.Unread,
						strings.Join(conv.Participants, ", "), conv.Subject,
						conv.LastMessageAt.Local().Format(timeLayout))
				}
				return tw.Flush()
			}

			resp, err := c.Conversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if markRead {
				if err := c.MarkConversationRead(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			if o.jsonOut {
				return printJSON(w, resp)
			}
			fmt.Fprintf(w, "%s\n\n", resp.Conversation.Subject)
			for _, m := range resp.Messages {
				printMessage(w, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark the conversation read after showing it")
	return cmd
}

func printMessage(w io.Writer, m models.Message) {
	marker := " "
	if !m.Read {
		marker = "•"
	}
	fmt.Fprintf(w, "%s %s  %s -> %s\n", marker, m.SentAt.Local().Format(timeLayout), m.From, m.To)
	if m.Body != "" {
		fmt.Fprintf(w, "  %s\n", m.Body)
	}
	for _, a := range m.Attachments {
		fmt.Fprintf(w, "  [%s, %s]\n", a.Name, formatSize(a.Size))
	}
	fmt.Fprintln(w)
}

func newSendCmd(o *options) *cobra.Command {
	var to, subject, conversation string
	var attachments []string
	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send an inbox message",
		Example: `  cloudexctl send --to sara "Draft is ready"
  cloudexctl send --conversation c-team --attach deck.pdf:204800`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := protocol.SendMessageRequest{
				ConversationID: conversation,
				To:             to,
				Subject:        subject,
				Body:           strings.Join(args, " "),
			}
			for _, a := range attachments {
				f, err := parseUpload(a)
				if err != nil {
					return err
				}
				req.Attachments = append(req.Attachments, models.Attachment{Name: f.Name, Size: f.Size})
			}

			msg, err := o.client().Send(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to %s (conversation %s)\n", msg.To, msg.ConversationID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&to, "to", "", "recipient")
	f.StringVar(&subject, "subject", "", "subject for a new conversation")
	f.StringVarP(&conversation, "conversation", "c", "", "reply in this conversation")
	f.StringArrayVarP(&attachments, "attach", "a", nil, "mock attachment as NAME:SIZE (repeatable)")
	return cmd
}

func newNotificationsCmd(o *options) *cobra.Command {
	var readAll, clear bool
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Show the notification drawer",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			w := cmd.OutOrStdout()
			switch {
			case clear:
				if err := c.ClearNotifications(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(w, "Notifications cleared")
				return nil
			case readAll:
				n, err := c.MarkAllNotificationsRead(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Marked %d notifications read\n", n)
				return nil
			}

			resp, err := c.Notifications(cmd.Context())
			if err != nil {
				return err
			}
			if o.jsonOut {
				return printJSON(w, resp)
			}
			fmt.Fprintf(w, "%d unread\n", resp.Unread)
			for _, n := range resp.Notifications {
				marker := " "
				if !n.Read {
					marker = "•"
				}
				fmt.Fprintf(w, "%s [%s] %s  %s\n", marker, n.Kind, n.CreatedAt.Local().Format(timeLayout), n.Title)
				if n.Body != "" {
					fmt.Fprintf(w, "    %s\n", n.Body)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark every notification read")
	cmd.Flags().BoolVar(&clear, "clear", false, "empty the drawer")
	cmd.MarkFlagsMutuallyExclusive("read-all", "clear")
	return cmd
}

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live change events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, errs := o.client().Watch(cmd.Context())
			w := cmd.OutOrStdout()
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return nil
					}
					if o.jsonOut {
						if err := printJSON(w, e); err != nil {
							return err
						}
						continue
					}
					line := e.Type + " " + e.Path
					if e.OldPath != "" {
						line = fmt.Sprintf("%s %s -> %s", e.Type, e.OldPath, e.Path)
					}
					if e.Count > 0 {
						line += fmt.Sprintf(" (%d)", e.Count)
					}
					fmt.Fprintln(w, strings.TrimSpace(line))
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "stream error: %v\n", err)
				}
			}
		},
	}
}

func newSnapshotCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Export the server state to its snapshot backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := o.client().Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("snapshot failed: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d items to %s at %s\n",
				resp.Items, resp.Backend, resp.SavedAt.Local().Format(timeLayout))
			return nil
		},
	}
}
