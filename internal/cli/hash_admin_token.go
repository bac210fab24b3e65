package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/newtechs/backend/internal/auth"
)

// HashAdminTokenCommand prints an admin token and the hash to put in
// ADMIN_TOKEN_HASH.
type HashAdminTokenCommand struct {
	Token string
	Cost  int

	out io.Writer
}

func NewHashAdminTokenCommand() *HashAdminTokenCommand {
	return &HashAdminTokenCommand{out: os.Stdout}
}

func (cmd *HashAdminTokenCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("hash-admin-token", flag.ContinueOnError)

	fs.StringVar(&cmd.Token, "token", "", "Token to hash (a random one is generated if empty)")
	fs.IntVar(&cmd.Cost, "cost", auth.DefaultCost, "bcrypt cost")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s hash-admin-token [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate the bcrypt hash for ADMIN_TOKEN_HASH.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *HashAdminTokenCommand) Run() error {
	token := cmd.Token
	if token == "" {
		generated, err := auth.GenerateToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		token = generated
	}

	hash, err := auth.HashToken(token, cmd.Cost)
	if err != nil {
		return err
	}

	if cmd.Token == "" {
		fmt.Fprintf(cmd.out, "Token: %s\n", token)
	}
	fmt.Fprintf(cmd.out, "ADMIN_TOKEN_HASH=%s\n", hash)
	return nil
}
