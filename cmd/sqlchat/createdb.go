package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sqlchat/sqlchat/internal/dataset"
)

func newCreateDBCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "createdb <handle> <script.sql>",
		Short: "Create a SQLite dataset from a SQL script",
		Long: `createdb builds a fresh SQLite database at <data-dir>/<handle>/data.sqlite
and runs the given SQL script against it. An existing database file for the
handle is replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, scriptPath := args[0], args[1]

			script, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read SQL script: %w", err)
			}

			dir := filepath.Join(dataDir, handle)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create dataset directory: %w", err)
			}

			dbPath := filepath.Join(dir, "data.sqlite")
			if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove existing database: %w", err)
			}

			db, err := dataset.Open(cmd.Context(), handle, dataset.DriverSQLite, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.ExecScript(cmd.Context(), string(script)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database created successfully!\n\nDatabase File:\n%s\n", dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "directory that holds datasets")
	return cmd
}
