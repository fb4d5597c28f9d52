package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
)

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile and whether the local key matches the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, p, err := a.client()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Account:   %s\n", p.AccountID)
			fmt.Fprintf(a.out, "Relay:     %s\n", p.ServerURL)
			fmt.Fprintf(a.out, "Key dir:   %s\n", p.KeyDir)
			fmt.Fprintf(a.out, "Verify:    %s\n", p.Verify)

			ctx := commandContext(cmd)
			acc, err := c.Account(ctx, p.AccountID)
			switch {
			case errors.Is(err, securexchat.ErrAccountNotFound):
				fmt.Fprintln(a.out, "Name:      (not in the directory)")
			case err != nil:
				return err
			case acc.DisplayName == "":
				fmt.Fprintln(a.out, "Name:      (not set)")
			default:
				fmt.Fprintf(a.out, "Name:      %s\n", acc.DisplayName)
			}

			ok, err := c.VerifyLocalKey(ctx)
			switch {
			case errors.Is(err, securexchat.ErrPrivateKeyNotFound):
				fmt.Fprintln(a.out, "Key:       no private key on this device")
			case errors.Is(err, securexchat.ErrNoPublishedKey):
				fmt.Fprintln(a.out, "Key:       not provisioned")
			case err != nil:
				return err
			case ok:
				fmt.Fprintln(a.out, "Key:       matches the directory")
			default:
				fmt.Fprintln(a.out, "Key:       MISMATCH with the directory")
			}
			return nil
		},
	}
}
