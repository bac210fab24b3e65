package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/entrypoint"
)

// mappingFlag collects repeated -map source=blog values.
type mappingFlag map[string]string

func (m mappingFlag) String() string {
	pairs := make([]string, 0, len(m))
	for source, blog := range m {
		pairs = append(pairs, source+"="+blog)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (m mappingFlag) Set(value string) error {
	parsed := config.ParseMapping(value)
	if len(parsed) == 0 {
		return fmt.Errorf("expected source=blog, got %q", value)
	}
	for source, blog := range parsed {
		m[source] = blog
	}
	return nil
}

// ImportCommand runs a Blogger import from the command line
type ImportCommand struct {
	Mapping mappingFlag
	Feeds   string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func NewImportCommand(cfg *config.Config, logger *zap.Logger) *ImportCommand {
	return &ImportCommand{Mapping: mappingFlag{}, cfg: cfg, logger: logger, out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.Var(cmd.Mapping, "map", "Source to blog mapping as source=blog (repeatable, comma-separated allowed)")
	fs.StringVar(&cmd.Feeds, "feeds", cmd.cfg.Feed.RootDir, "Directory holding <source>/feed.atom exports")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -map <source=blog> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import Blogger Atom exports into blogs.\n\n")
		fmt.Fprintf(os.Stderr, "A source is a directory under -feeds, an http(s) URL or an s3:// URI.\n")
		fmt.Fprintf(os.Stderr, "Without -map, IMPORT_SYNC_MAPPING is used.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -map newtechs-export=newtechs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -map a=newtechs -map b=crypto-updates -feeds ./exports\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(cmd.Mapping) == 0 {
		for source, blog := range cmd.cfg.ImportSync.Mapping {
			cmd.Mapping[source] = blog
		}
	}
	if len(cmd.Mapping) == 0 {
		fs.Usage()
		return fmt.Errorf("at least one -map source=blog is required")
	}

	return nil
}

func (cmd *ImportCommand) Run(ctx context.Context) error {
	cfg := *cmd.cfg
	cfg.Feed.RootDir = cmd.Feeds

	app, err := entrypoint.NewApp(ctx, &cfg, cmd.logger)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Importer.Import(ctx, entities.ImportTriggerCLI, cmd.Mapping)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(cmd.out, "Blogs processed:    %d\n", report.BlogsProcessed)
	fmt.Fprintf(cmd.out, "Posts imported:     %d\n", report.PostsImported)
	fmt.Fprintf(cmd.out, "Posts skipped:      %d\n", report.PostsSkipped)
	fmt.Fprintf(cmd.out, "Categories created: %d\n", report.CategoriesCreated)
	fmt.Fprintf(cmd.out, "Authors created:    %d\n", report.AuthorsCreated)
	if len(report.Errors) > 0 {
		fmt.Fprintf(cmd.out, "\nErrors (%d):\n", len(report.Errors))
		for _, msg := range report.Errors {
			fmt.Fprintf(cmd.out, "  - %s\n", msg)
		}
	}
	return nil
}
