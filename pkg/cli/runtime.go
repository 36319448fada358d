package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelsamjatin/imagelake/internal/app"
	"github.com/michaelsamjatin/imagelake/internal/config"
	internaldb "github.com/michaelsamjatin/imagelake/internal/db"
	"github.com/michaelsamjatin/imagelake/internal/lake"
)

// cliActor is recorded in the audit log for CLI-triggered operations.
const cliActor = "cli"

// runtime bundles the opened databases and wired services for one command
// invocation. Callers must call close when done.
type runtime struct {
	cfg     *config.Config
	app     *app.App
	lake    *lake.Store
	writeDB *sql.DB
	readDB  *sql.DB
	logger  *slog.Logger
}

func (rt *runtime) close() {
	_ = rt.lake.Close()
	_ = rt.readDB.Close()
	_ = rt.writeDB.Close()
}

// openRuntime loads config, opens the metastore and the lake, runs
// migrations, and wires the application services.
func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if v, _ := cmd.Root().PersistentFlags().GetString("meta-db"); v != "" {
		cfg.MetaDBPath = v
	}
	if v, _ := cmd.Root().PersistentFlags().GetString("lake-db"); v != "" {
		cfg.LakeDBPath = v
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		readDB.Close()
		writeDB.Close()
		return nil, fmt.Errorf("metastore migrations: %w", err)
	}

	lakeStore, err := lake.Open(ctx, cfg.LakeDBPath)
	if err != nil {
		readDB.Close()
		writeDB.Close()
		return nil, fmt.Errorf("open lake: %w", err)
	}

	application := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Lake:    lakeStore,
		Logger:  logger,
	})

	return &runtime{
		cfg:     cfg,
		app:     application,
		lake:    lakeStore,
		writeDB: writeDB,
		readDB:  readDB,
		logger:  logger,
	}, nil
}
