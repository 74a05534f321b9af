package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rebeliceyang/lazyadmin/internal/db/connection"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the PostgreSQL password kept in the keyring",
	Long: `Stores or removes the password of the configured PostgreSQL data source.
It is read back at startup when datasource.postgres.use_keyring is true.`,
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the password, read from the terminal or stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openPasswordStore()
		if err != nil {
			return err
		}
		password, err := readPassword(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		if err := store.Save(cfg, password); err != nil {
			return err
		}
		fmt.Printf("Stored password for %s\n", describeConnection(cfg))
		if !cfg.UseKeyring {
			fmt.Fprintln(os.Stderr, "Set datasource.postgres.use_keyring to true to use it.")
		}
		return nil
	},
}

var passwordDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openPasswordStore()
		if err != nil {
			return err
		}
		if err := store.Delete(cfg); err != nil {
			return err
		}
		fmt.Printf("Removed password for %s\n", describeConnection(cfg))
		return nil
	},
}

func init() {
	passwordCmd.AddCommand(passwordSetCmd, passwordDeleteCmd)
	rootCmd.AddCommand(passwordCmd)
}

func openPasswordStore() (models.ConnectionConfig, *connection.PasswordStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return models.ConnectionConfig{}, nil, err
	}
	store, err := connection.NewPasswordStore(cfg.State.Dir)
	if err != nil {
		return models.ConnectionConfig{}, nil, err
	}
	return cfg.DataSource.Postgres, store, nil
}

// readPassword reads without echo from a terminal, or the first line of any
// other input
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}

func describeConnection(cfg models.ConnectionConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}
