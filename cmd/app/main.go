package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/compile"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// loadConfig loads the YAML config when present, falling back to defaults
// so compile/check work without any config file.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// vaultPath resolves the vault directory: the --vault flag wins over the
// config file.
func vaultPath(cmd *cli.Command, cfg *internal.Config) string {
	if v := cmd.String("vault"); v != "" {
		return v
	}
	return cfg.Vault.Path
}

func compileVault(cmd *cli.Command) (*models.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFS(vaultPath(cmd, cfg))
	if err != nil {
		return nil, err
	}
	files, err := index.Snapshot(store)
	if err != nil {
		return nil, err
	}
	return compile.Compile(files), nil
}

func runCompile(_ context.Context, cmd *cli.Command) error {
	res, err := compileVault(cmd)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printDiagnostics(cmd *cli.Command, res *models.Result) error {
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Errors)
	}
	for _, d := range res.Errors {
		line := fmt.Sprintf("%s: %s [%s] %s", d.File, d.Severity, d.Category, d.Message)
		if d.Line > 0 {
			line = fmt.Sprintf("%s:%d: %s [%s] %s", d.File, d.Line, d.Severity, d.Category, d.Message)
		}
		if d.Suggestion != "" {
			line += " (" + d.Suggestion + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func productionErrors(res *models.Result) int {
	n := 0
	for _, d := range res.Errors {
		if d.Severity == models.SeverityError && d.Category == models.CategoryProduction {
			n++
		}
	}
	return n
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root := vaultPath(cmd, cfg)
	store, err := storage.NewFS(root)
	if err != nil {
		return err
	}
	files, err := index.Snapshot(store)
	if err != nil {
		return err
	}
	res := compile.Compile(files)
	if err := printDiagnostics(cmd, res); err != nil {
		return err
	}

	if cmd.Bool("watch") {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		if _, err := index.Sync(db, store, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		return index.Watch(ctx, db, store, root, logger, func(res *models.Result) {
			if err := printDiagnostics(cmd, res); err != nil {
				logger.Warn("print diagnostics failed", slog.String("error", err.Error()))
			}
		})
	}

	// CI contract: wip-tier noise is tolerated, production-tier errors
	// fail the build.
	if n := productionErrors(res); n > 0 {
		return cli.Exit(fmt.Sprintf("%d production error(s)", n), 1)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := storage.NewFS(vaultPath(cmd, cfg))
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// MCP speaks JSON on stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial compile failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(store, db, logger).ServeStdio()
}

func main() {
	vaultFlag := &cli.StringFlag{
		Name:    "vault",
		Aliases: []string{"d"},
		Usage:   "Path to the content vault directory (overrides config)",
		Sources: cli.EnvVars("ANSUZ_VAULT"),
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Course-content compiler: turns a wiki-style Markdown vault into validated, flattened course modules",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "compile",
				Usage:  "Compile the vault and print the flattened modules plus diagnostics as JSON",
				Flags:  []cli.Flag{vaultFlag},
				Action: runCompile,
			},
			{
				Name:  "check",
				Usage: "Compile the vault and report diagnostics; exits non-zero on production-tier errors",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.BoolFlag{Name: "json", Usage: "Emit diagnostics as JSON"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep watching the vault and reprint diagnostics on change"},
				},
				Action: runCheck,
			},
			{
				Name:   "serve",
				Usage:  "Compile, watch, and serve the vault over HTTP with SSE recompile events",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve compiled modules and diagnostics over MCP stdio for editor integration",
				Flags:  []cli.Flag{vaultFlag},
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
