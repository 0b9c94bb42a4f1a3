package commands

import (
	"errors"
	"fmt"
	"os"

	gstypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/spf13/cobra"

	"github.com/rollkit/lightbridge/types"
)

const envSecretKey = "AVAIL_SECRET_KEY"

// NewSubmitCmd returns the command submitting one transaction.
func NewSubmitCmd() *cobra.Command {
	var (
		data      string
		extrinsic string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit data or a signed extrinsic to the full node",
		Long: `Submit data or a signed extrinsic to the full node and print the
transaction hash. Data is signed with the secret key read from the ` + envSecretKey + `
environment variable.`,
		Args: cobra.NoArgs,
	}
	loadConfig := withConfig(cmd)
	cmd.Flags().StringVar(&data, "data", "", "data to submit")
	cmd.Flags().StringVar(&extrinsic, "extrinsic", "", "hex encoded signed extrinsic to submit")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tx, err := buildTransaction(data, extrinsic)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runtime := newRuntime(cmd.ErrOrStderr())
		defer runtime.Close()
		res := runtime.Submit(cmd.Context(), cfg, cfg.AppID, tx, os.Getenv(envSecretKey))
		hash, ok := res.Hash()
		if !ok {
			return errors.New(res.Err())
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	}
	return cmd
}

func buildTransaction(data, extrinsic string) (types.Transaction, error) {
	tx := types.Transaction{Data: []byte(data)}
	if extrinsic != "" {
		raw, err := gstypes.HexDecodeString(extrinsic)
		if err != nil {
			return types.Transaction{}, fmt.Errorf("invalid extrinsic: %w", err)
		}
		tx.Extrinsic = raw
	}
	if err := tx.Validate(); err != nil {
		return types.Transaction{}, err
	}
	return tx, nil
}
