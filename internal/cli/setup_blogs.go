package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/database"
	"github.com/newtechs/backend/internal/database/blogs"
)

// SetupBlogsCommand creates the fixed blog catalog
type SetupBlogsCommand struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func NewSetupBlogsCommand(cfg *config.Config, logger *zap.Logger) *SetupBlogsCommand {
	return &SetupBlogsCommand{cfg: cfg, logger: logger, out: os.Stdout}
}

func (cmd *SetupBlogsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("setup-blogs", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s setup-blogs\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the blog catalog. Existing blogs are left untouched.\n")
	}
	return fs.Parse(args)
}

func (cmd *SetupBlogsCommand) Run(ctx context.Context) error {
	db, err := database.NewDatabase(cmd.cfg.Database, cmd.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	list, err := blogs.NewRepository(db.DB).SetupCatalog(ctx)
	if err != nil {
		return err
	}

	for _, blog := range list {
		fmt.Fprintf(cmd.out, "  %-20s %s\n", blog.Slug, blog.Name)
	}
	fmt.Fprintf(cmd.out, "Successfully set up %d blogs\n", len(list))
	return nil
}
