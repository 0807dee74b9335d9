package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/usagelens/usagelens/internal/config"
	"github.com/usagelens/usagelens/internal/ingest"
	"github.com/usagelens/usagelens/internal/server"
	"github.com/usagelens/usagelens/internal/store"
	"github.com/usagelens/usagelens/internal/tools"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const watcherDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "ingest":
			runIngest(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("usagelens %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`usagelens %s - application usage analytics server

Loads application usage logs and an app catalog into SQLite and
serves parameterized analytics tools over a local JSON API.

Usage:
  usagelens [flags]           Start the server (default command)
  usagelens serve [flags]     Start the server (explicit)
  usagelens ingest [flags]    Import drop files and exit
  usagelens version           Show version information
  usagelens help              Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)
  -data-dir string    Data directory (database and drop dir)
  -drop-dir string    Directory watched for usage-log drops

Ingest flags:
  -data-dir string    Data directory (database and drop dir)
  -file string        Import a single file instead of the drop dir

Environment variables:
  USAGELENS_HOST      Host to bind to
  USAGELENS_PORT      Port to listen on
  USAGELENS_DATA_DIR  Data directory (database, drop dir)
  USAGELENS_DROP_DIR  Drop directory override

Data is stored in ~/.usagelens/ by default. Drop .jsonl files of
usage events or .json catalog arrays into the drop directory and
they are imported automatically.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig("usagelens", args)
	db := mustOpenDB(cfg)
	defer db.Close()

	importer := ingest.NewImporter(db)
	stopWatcher := startDropWatcher(cfg, importer)
	defer stopWatcher()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, db, tools.NewRegistry(),
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	fmt.Printf("usagelens %s listening at http://%s:%d\n",
		version, cfg.Host, cfg.Port)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case s := <-sig:
		log.Printf("received %v, shutting down", s)
		ctx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("usagelens ingest", flag.ExitOnError)
	file := fs.String("file", "", "Import a single file")
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}

	db := mustOpenDB(cfg)
	defer db.Close()

	importer := ingest.NewImporter(db)
	var res ingest.Result
	if *file != "" {
		res, err = importer.ImportFile(*file)
	} else {
		res, err = importer.ImportDir(cfg.DropDir)
	}
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	fmt.Printf("Imported %d records (%d skipped)\n",
		res.Inserted, res.Skipped)
}

func mustLoadConfig(name string, args []string) config.Config {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: usagelens [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *store.DB {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	return db
}

func startDropWatcher(
	cfg config.Config, importer *ingest.Importer,
) func() {
	onChange := func(paths []string) {
		for _, path := range paths {
			res, err := importer.ImportFile(path)
			if err != nil {
				log.Printf("import %s: %v", path, err)
				continue
			}
			if res.Inserted > 0 || res.Skipped > 0 {
				log.Printf("imported %s: %d records (%d skipped)",
					path, res.Inserted, res.Skipped)
			}
		}
	}
	watcher, err := ingest.NewWatcher(watcherDebounce, onChange)
	if err != nil {
		log.Printf("warning: file watcher unavailable: %v", err)
		return func() {}
	}
	if err := watcher.Watch(cfg.DropDir); err != nil {
		log.Printf("warning: watching drop dir: %v", err)
		return func() {}
	}
	watcher.Start()
	return watcher.Stop
}
