package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
)

func readCmd(a *app) *cobra.Command {
	var (
		follow   bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "read <peer>",
		Short: "Show the conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client()
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			show := func(m securexchat.Message) { printMessage(a.out, m) }

			if follow {
				err := c.Watch(ctx, args[0], show, securexchat.WatchIncludeExisting(), securexchat.WatchInterval(interval))
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					return nil
				}
				return err
			}

			msgs, err := c.Conversation(ctx, args[0])
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Fprintf(a.out, "No messages with %s\n", args[0])
				return nil
			}
			for _, m := range msgs {
				show(m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep waiting for new messages")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "initial poll interval with --follow")
	return cmd
}

func printMessage(w io.Writer, m securexchat.Message) {
	who := m.SenderID
	if m.Outgoing {
		who = color.CyanString(who)
	} else {
		who = color.GreenString(who)
	}

	line := fmt.Sprintf("[%s] %s:", m.CreatedAt.Local().Format(time.DateTime), who)
	if m.Text != "" {
		line += " " + m.Text
	}
	if m.Attachment != nil {
		line += fmt.Sprintf(" <%s %s>", m.Attachment.MediaType, m.Attachment.URL)
	}
	if m.Disappearing {
		line += color.YellowString(" (disappearing)")
	}
	if m.Status == securexchat.StatusUnverified {
		line += color.RedString(" (signature not verified)")
	}
	fmt.Fprintln(w, line)
}
