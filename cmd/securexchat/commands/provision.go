package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
)

func provisionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create and publish a key pair, or check the existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client()
			if err != nil {
				return err
			}

			s, stop := a.startSpinner("Provisioning keys...")
			result, err := c.Provision(commandContext(cmd))
			if err != nil {
				s.FinalMSG = "Provisioning failed"
				stop()
				return err
			}
			s.FinalMSG = provisionMessage(result, c.AccountID())
			stop()

			if result == securexchat.ProvisionNeedsImport || result == securexchat.ProvisionMismatch {
				return fmt.Errorf("account %s is %s", c.AccountID(), result)
			}
			return nil
		},
	}
}

func provisionMessage(r securexchat.ProvisionResult, accountID string) string {
	switch r {
	case securexchat.ProvisionCreated:
		return fmt.Sprintf("Created and published a key pair for %s", accountID)
	case securexchat.ProvisionReady:
		return fmt.Sprintf("Key pair for %s is ready", accountID)
	case securexchat.ProvisionNeedsImport:
		return fmt.Sprintf("%s has a published key but no private key on this device; import it with `securexchat import-key`", accountID)
	case securexchat.ProvisionMismatch:
		return fmt.Sprintf("The private key on this device does not match the published key for %s", accountID)
	}
	return r.String()
}
