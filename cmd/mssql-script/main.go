package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mssql-script/internal/config"
	"mssql-script/internal/db"
	"mssql-script/internal/script"
	"mssql-script/internal/secrets"
)

const dbPasswordKey = "db_password"

type cmdRun struct {
	flagFile      string
	flagOutput    string
	flagSeparator string
	flagFormat    string
	flagDatabase  string
	flagTimeout   int
	flagParams    []string
	flagCheck     bool
}

func (c *cmdRun) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "mssql-script [<script>]"
	cmd.Short = "Execute a multi-batch SQL script on a Microsoft SQL Server"
	cmd.Long = `Execute a multi-batch SQL script on a Microsoft SQL Server

  The script is split into batches at lines consisting of exactly the
  separator token (default "GO"). Batches run strictly in order on one
  connection; the first failing batch aborts the rest.

  If <script> is the special value "-", or --file is "-", the script is
  read from standard input.

  Every result set of every batch is returned. With --format json the
  output is {"queries": [...], "queryResults": [...]} where queryResults
  indexes as [batch][resultSet][row]; with --format table each result set
  is rendered as a table (implies --output dict).`
	cmd.RunE = c.Run
	cmd.Args = cobra.MaximumNArgs(1)

	cmd.Flags().StringVarP(&c.flagFile, "file", "f", "", "Read the script from a file instead of the argument")
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "default", "Row shape (default or dict)")
	cmd.Flags().StringVar(&c.flagSeparator, "separator", "", "Batch separator line (default from config)")
	cmd.Flags().StringVar(&c.flagFormat, "format", "json", "Output format (json or table)")
	cmd.Flags().StringVarP(&c.flagDatabase, "database", "d", "", "Database to run the script against (default from config)")
	cmd.Flags().IntVar(&c.flagTimeout, "timeout", 0, "Script timeout in seconds (default from config)")
	cmd.Flags().StringArrayVarP(&c.flagParams, "param", "p", nil, "Script parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&c.flagCheck, "check", false, "Split the script and print the batches without executing")

	configCmd := cmdConfig{}
	cmd.AddCommand(configCmd.Command())

	return cmd
}

func (c *cmdRun) Run(cmd *cobra.Command, args []string) error {
	scriptText, err := c.readScript(args)
	if err != nil {
		return err
	}

	mode, err := script.ParseOutputMode(c.flagOutput)
	if err != nil {
		return err
	}

	format := strings.TrimSpace(c.flagFormat)
	if format != "json" && format != "table" {
		return errors.New("format must be one of: json, table")
	}
	if format == "table" {
		// Table headers come from column names.
		mode = script.OutputDict
	}

	params, err := parseParams(c.flagParams)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return errors.New(`config not found; run "mssql-script config init" and edit it`)
		}
		return err
	}
	if c.flagDatabase != "" {
		cfg.DB.Database = c.flagDatabase
	}

	sep := c.flagSeparator
	if sep == "" {
		sep = cfg.Script.Separator
	}

	queries := script.Split(scriptText, sep)

	if c.flagCheck {
		return printJSON(cmd.OutOrStdout(), map[string]any{"queries": queries})
	}

	password := ""
	if secret, err := secrets.Get(dbPasswordKey); err == nil {
		password = string(secret)
	} else if !errors.Is(err, secrets.ErrNotFound) {
		return err
	}

	dbConn, err := db.Open(cfg, password, db.DefaultOptions())
	if err != nil {
		var dbErr *db.Error
		if errors.As(err, &dbErr) && dbErr.Code == db.CodeUnknownDatabase {
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s does not exist\n", cfg.DB.Database)
			return nil
		}
		return err
	}
	defer dbConn.Close()

	timeout := time.Duration(cfg.Script.TimeoutSeconds) * time.Second
	if c.flagTimeout > 0 {
		timeout = time.Duration(c.flagTimeout) * time.Second
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if cfg.DB.Database != "" {
		exists, err := db.DatabaseExists(ctx, dbConn, cfg.DB.Database)
		if err != nil {
			return err
		}
		if !exists {
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s does not exist\n", cfg.DB.Database)
			return nil
		}
	}

	exec := script.NewExecutor(script.DB(dbConn))
	exec.MaxRows = cfg.Script.MaxRows

	results, err := exec.Execute(ctx, queries, params, mode)
	if err != nil {
		var execErr *script.QueryExecutionError
		if errors.As(err, &execErr) {
			return fmt.Errorf("batch %d failed: %w\nfailing batch:\n%s", execErr.BatchIndex, execErr.Err, execErr.Batch)
		}
		return err
	}

	if format == "table" {
		renderTables(cmd.OutOrStdout(), results)
		return nil
	}

	return printJSON(cmd.OutOrStdout(), map[string]any{
		"queries":      queries,
		"queryResults": results,
	})
}

func (c *cmdRun) readScript(args []string) (string, error) {
	fromStdin := false
	switch {
	case c.flagFile == "-":
		fromStdin = true
	case c.flagFile != "":
		b, err := os.ReadFile(c.flagFile)
		if err != nil {
			return "", fmt.Errorf("failed to read script file: %w", err)
		}
		return string(b), nil
	case len(args) == 1 && args[0] == "-":
		fromStdin = true
	case len(args) == 1:
		return args[0], nil
	}

	if !fromStdin {
		return "", errors.New("no script given: pass it as an argument, via --file, or on stdin with \"-\"")
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(b), nil
}

// parseParams turns repeated name=value flags into a parameter map. Values
// stay strings; the server casts them as the script requires.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		params[name] = value
	}
	return params, nil
}

func main() {
	run := cmdRun{}
	cmd := run.Command()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
