package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
	"github.com/securexchat/client-go/internal/crypto"
)

func exportKeyCmd(a *app) *cobra.Command {
	var (
		pem bool
		out string
	)

	cmd := &cobra.Command{
		Use:   "export-key",
		Short: "Export the private key for backup or another device",
		Long: `Export the private key as JSON with the account id and public key, or as
a PEM block with --pem. Anyone holding the export can read this account's
messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if !pem && out != "" {
				if err := c.ExportPrivateKeyToFile(ctx, out); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Private key written to %s\n", out)
				return nil
			}

			exported, err := c.ExportPrivateKey(ctx)
			if err != nil {
				return err
			}
			var data []byte
			if pem {
				data, err = crypto.EncodePrivateKeyPEM(exported.PrivateKey)
			} else {
				data, err = json.MarshalIndent(exported, "", "  ")
				data = append(data, '\n')
			}
			if err != nil {
				return err
			}

			if out != "" {
				return os.WriteFile(out, data, 0o600)
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&pem, "pem", false, "write a PEM block instead of JSON")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file (mode 0600) instead of stdout")
	return cmd
}

func importKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-key <file|->",
		Short: "Import a private key exported from another device",
		Long: `Import a private key from a JSON export, a PEM block or a base64 PKCS#8
string. The key is stored only if it matches the published key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			c, _, err := a.client()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			trimmed := bytes.TrimSpace(data)
			if bytes.HasPrefix(trimmed, []byte("{")) {
				var exported securexchat.ExportedKey
				if err := json.Unmarshal(trimmed, &exported); err != nil {
					return fmt.Errorf("%w: %v", securexchat.ErrInvalidImportData, err)
				}
				err = c.ImportExportedKey(ctx, &exported)
			} else {
				err = c.ImportPrivateKey(ctx, string(trimmed))
			}
			if errors.Is(err, securexchat.ErrKeyMismatch) {
				return fmt.Errorf("%w: the key does not belong to %s's published key", err, c.AccountID())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Private key imported for %s\n", c.AccountID())
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func rotateCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Replace this account's key pair",
		Long: `Generate, publish and store a new key pair. Messages encrypted to the old
key can no longer be read on any device unless the old key was exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client()
			if err != nil {
				return err
			}

			s, stop := a.startSpinner("Rotating keys...")
			rot, err := c.RotateKeys(commandContext(cmd), securexchat.RotateOptions{Confirm: yes})
			if err != nil {
				stop()
				if errors.Is(err, securexchat.ErrRotationNotConfirmed) {
					return fmt.Errorf("%w: pass --yes to rotate", err)
				}
				return err
			}
			s.FinalMSG = "Key pair rotated"
			stop()

			if rot.PreviousPublicKey != "" {
				fmt.Fprintf(a.out, "Previous public key: %s\n", abbreviate(rot.PreviousPublicKey))
			}
			fmt.Fprintf(a.out, "New public key:      %s\n", abbreviate(rot.PublicKey))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that old messages become unreadable")
	return cmd
}

func abbreviate(s string) string {
	const keep = 16
	if len(s) <= 2*keep {
		return s
	}
	return s[:keep] + "..." + s[len(s)-keep:]
}

func conversationIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversation-id <a> <b>",
		Short: "Print the conversation id shared by two accounts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), securexchat.ConversationID(args[0], args[1]))
			return nil
		},
	}
}
