// Command cmisimport imports manifest items into a CMIS content repository.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/custodia-labs/cmisimport/internal/adapters/driven/cmis/browser"
	"github.com/custodia-labs/cmisimport/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cmisimport/internal/adapters/driven/manifest"
	"github.com/custodia-labs/cmisimport/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cmisimport/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cmisimport/internal/adapters/driving/cli"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/services"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := file.DefaultDir()
	if err != nil {
		logger.Error("locating home directory: %v", err)
		return err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		logger.Error("opening config: %v", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	// The journal is optional: imports still run when it cannot be opened.
	var journal driven.RunJournal
	store, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		logger.Warn("run journal disabled: %v", err)
	} else {
		defer store.Close()
		journal = store.RunJournal()
	}

	sessionService := services.NewSessionService(
		settingsService,
		browser.NewSessionFactory(browser.Options{}),
		journal,
		manifest.NewReader(),
		func() driven.IdentityCache { return memory.NewIdentityCache() },
	)
	sessionService.SetRunIDGenerator(uuid.NewString)

	svc := cli.Services{
		Session:  sessionService,
		Settings: settingsService,
	}
	if journal != nil {
		svc.Runs = services.NewRunService(journal)
	}
	cli.SetServices(svc)
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return fmt.Errorf("cmisimport: %w", err)
	}
	return nil
}
