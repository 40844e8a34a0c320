package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mssql-script/internal/config"
	"mssql-script/internal/platform/paths"
	"mssql-script/internal/secrets"
)

type cmdConfig struct{}

func (c *cmdConfig) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "config"
	cmd.Short = "Manage the mssql-script configuration"

	initCmd := cmdConfigInit{}
	cmd.AddCommand(initCmd.Command())

	passwordCmd := cmdConfigSetPassword{}
	cmd.AddCommand(passwordCmd.Command())

	clearCmd := cmdConfigClearPassword{}
	cmd.AddCommand(clearCmd.Command())

	return cmd
}

type cmdConfigInit struct {
	flagForce bool
}

func (c *cmdConfigInit) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "init"
	cmd.Short = "Write a default config file"
	cmd.RunE = c.Run

	cmd.Flags().BoolVar(&c.flagForce, "force", false, "Overwrite an existing config file")

	return cmd
}

func (c *cmdConfigInit) Run(cmd *cobra.Command, args []string) error {
	p, err := paths.ConfigFilePath()
	if err != nil {
		return err
	}

	if !c.flagForce {
		if _, err := config.Load(); err == nil {
			return fmt.Errorf("config already exists at %s, use --force to overwrite", p)
		}
	}

	if err := config.Save(config.Default()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	return nil
}

type cmdConfigSetPassword struct{}

func (c *cmdConfigSetPassword) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "set-password <password>"
	cmd.Short = "Store the database password in the secret store"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdConfigSetPassword) Run(cmd *cobra.Command, args []string) error {
	if err := secrets.Set(dbPasswordKey, []byte(args[0])); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Password stored")
	return nil
}

type cmdConfigClearPassword struct{}

func (c *cmdConfigClearPassword) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "clear-password"
	cmd.Short = "Remove the stored database password"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdConfigClearPassword) Run(cmd *cobra.Command, args []string) error {
	if err := secrets.Delete(dbPasswordKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Password cleared")
	return nil
}
