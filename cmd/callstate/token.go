package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/credential"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var overrides config.Config

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for the configured identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.load(cmd.ErrOrStderr(), overrides)
			if err != nil {
				return err
			}

			token, err := credential.Mint(credential.MintConfig{
				APIKey:      cfg.Credential.APIKey,
				APISecret:   cfg.Credential.APISecret,
				Identity:    cfg.Credential.Identity,
				DisplayName: cfg.Credential.DisplayName,
				TTL:         cfg.Credential.TTL,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.Credential.Identity, "identity", "", "token identity")
	flags.StringVar(&overrides.Credential.DisplayName, "name", "", "display name")
	flags.DurationVar(&overrides.Credential.TTL, "ttl", 0, "token lifetime")

	cmd.AddCommand(newTokenInspectCmd(root))
	return cmd
}

type tokenInfo struct {
	Identity  string    `yaml:"identity"`
	Name      string    `yaml:"name,omitempty"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
	Expired   bool      `yaml:"expired"`
	Verified  bool      `yaml:"verified"`
}

func newTokenInspectCmd(root *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Decode an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tok *credential.Token
				err error
			)
			if verify {
				cfg, _, loadErr := root.load(cmd.ErrOrStderr(), config.Config{})
				if loadErr != nil {
					return loadErr
				}
				tok, err = credential.Verify(args[0], cfg.Credential.APISecret)
			} else {
				tok, err = credential.Parse(args[0])
			}
			if err != nil {
				return err
			}

			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(tokenInfo{
				Identity:  tok.Identity,
				Name:      tok.Name,
				ExpiresAt: tok.ExpiresAt,
				Expired:   tok.Expired(time.Now()),
				Verified:  verify,
			})
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the signature with the configured api secret")
	return cmd
}
