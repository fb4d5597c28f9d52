package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
	"github.com/securexchat/client-go/internal/config"
	"github.com/securexchat/client-go/localstore"
)

func initCmd(a *app) *cobra.Command {
	var (
		p       config.Profile
		pin     bool
		force   bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the profile for this device",
		Long: `Write the profile naming the account, the relay and where private keys
are kept. With --pin the relay's directory signing key is fetched and
pinned, so later lookups are rejected unless the relay attests them.
The relay must answer its health check unless --offline is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("profile %s already exists (use --force to overwrite)", a.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if !offline || pin {
				c, err := relayClient(&p)
				if err != nil {
					return err
				}
				if err := c.Health(commandContext(cmd)); err != nil {
					return fmt.Errorf("relay %s: %w (use --offline to skip this check)", p.ServerURL, err)
				}
				if pin && p.DirectoryKey == "" {
					key, err := fetchDirectoryKey(cmd, a, c, p.ServerURL)
					if err != nil {
						return err
					}
					p.DirectoryKey = key
				}
			}

			if err := config.SaveProfile(a.configPath, &p); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Profile written to %s\n", a.configPath)
			if p.DirectoryKey != "" {
				fmt.Fprintln(a.out, "Directory signing key pinned")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.AccountID, "account", "", "account id")
	f.StringVar(&p.ServerURL, "server", "", "relay base URL")
	f.StringVar(&p.APIKey, "api-key", "", "relay API key")
	f.StringVar(&p.KeyDir, "key-dir", "", "private key directory (default: keys next to the profile)")
	f.StringVar(&p.DirectoryKey, "directory-key", "", "pinned directory signing key")
	f.StringVar(&p.Verify, "verify", config.VerifyNone, "signature verification: none, if-signed or required")
	f.BoolVar(&pin, "pin", false, "fetch and pin the relay's directory signing key")
	f.BoolVar(&force, "force", false, "overwrite an existing profile")
	f.BoolVar(&offline, "offline", false, "write the profile without contacting the relay")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("server")
	return cmd
}

// relayClient is a throwaway client for talking to the relay before the
// profile exists.
func relayClient(p *config.Profile) (*securexchat.Client, error) {
	return securexchat.New(p.AccountID,
		securexchat.WithBaseURL(p.ServerURL),
		securexchat.WithAPIKey(p.APIKey),
		securexchat.WithLocalStore(localstore.NewMemory()),
	)
}

func fetchDirectoryKey(cmd *cobra.Command, a *app, c *securexchat.Client, serverURL string) (string, error) {
	info, err := c.ServerInfo(commandContext(cmd))
	if err != nil {
		return "", fmt.Errorf("fetch server info: %w", err)
	}
	if info.DirectorySigningKey == "" {
		return "", errors.New("relay does not attest directory lookups")
	}
	a.log.Infof("pinning directory key from %s", serverURL)
	return info.DirectorySigningKey, nil
}
