package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
)

func sendCmd(a *app) *cobra.Command {
	var (
		attach    string
		media     string
		disappear bool
		sign      bool
	)

	cmd := &cobra.Command{
		Use:   "send <peer> [text]",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client(securexchat.WithSigning(sign))
			if err != nil {
				return err
			}

			msg := securexchat.OutgoingMessage{Disappearing: disappear}
			if len(args) == 2 {
				msg.Text = args[1]
			}
			if attach != "" {
				msg.Attachment = &securexchat.Attachment{URL: attach, MediaType: securexchat.MediaType(media)}
			}

			s, stop := a.startSpinner("Sending...")
			env, err := c.Send(commandContext(cmd), args[0], msg)
			if err != nil {
				s.FinalMSG = "Send failed"
				stop()
				return err
			}
			stop()

			fmt.Fprintf(a.out, "Sent %s to %s\n", env.ID, args[0])
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&attach, "attach", "", "attachment URL")
	f.StringVar(&media, "media", string(securexchat.MediaImage), "attachment media type: image or document")
	f.BoolVar(&disappear, "disappear", false, "delete the message after the retention window")
	f.BoolVar(&sign, "sign", false, "sign the message with this account's key")
	return cmd
}
