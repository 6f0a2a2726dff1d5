package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/develop"
)

var keyUseKeyring bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the API key in the project document or the OS keyring",
	Long: `Store the API key. Without an argument the key is read from stdin.

With --keyring the key goes to the OS keyring instead of the project document,
and is picked up when neither the document nor api.txt holds one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var key string
		if len(args) > 0 {
			key = args[0]
		} else {
			key = askLine("API key: ")
		}
		if key == "" {
			return credentials.ErrNoCredential
		}

		if keyUseKeyring {
			if err := credentials.StoreInKeyring(key); err != nil {
				return fmt.Errorf("failed to store key in keyring: %w", err)
			}
			fmt.Printf("API key stored in keyring: %s\n", credentials.Mask(key))
			return nil
		}

		if err := develop.SetKey(a.store, key, a.logger); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		fmt.Printf("API key configured: %s\n", credentials.Mask(key))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the masked API key and where it comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		key, source, err := a.resolver().Resolve(a.store.Config().API.APIKey)
		if errors.Is(err, credentials.ErrNoCredential) {
			fmt.Println("No API key configured.")
			return err
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s (from %s)\n", credentials.Mask(key), source)
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the API key from the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credentials.DeleteFromKeyring(); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		fmt.Println("API key removed from keyring.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyDeleteCmd)
	keySetCmd.Flags().BoolVar(&keyUseKeyring, "keyring", false, "Store in the OS keyring")
}
