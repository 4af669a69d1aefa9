package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/config"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an admin password for ADMIN_PASSWORD_HASH",
	Long:  "Reads a password from --password or the first line of stdin and prints its bcrypt hash, applying PASSWORD_PEPPER when set.",
	RunE:  runHashPassword,
}

var (
	hashPasswordValue string
	hashPasswordCost  int
)

func init() {
	hashPasswordCmd.Flags().StringVar(&hashPasswordValue, "password", "", "Password to hash (read from stdin when empty)")
	hashPasswordCmd.Flags().IntVar(&hashPasswordCost, "cost", 12, "bcrypt cost (10-14)")
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	if hashPasswordCost < 10 || hashPasswordCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", hashPasswordCost)
	}

	password := hashPasswordValue
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("password is empty")
	}

	auth := &config.AuthConfig{BcryptCost: hashPasswordCost, Pepper: os.Getenv("PASSWORD_PEPPER")}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
