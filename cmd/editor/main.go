// Command editor opens one content document against the content functions,
// applies edits from flags and saves it. With -watch it keeps the session
// open, reads further edits from stdin one per line (title, description,
// block, save) and auto-saves snapshots until stdin closes or it is
// interrupted.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aigym/internal/catalog"
	"aigym/internal/config"
	"aigym/internal/contentapi"
	"aigym/internal/domain/models/content"
	"aigym/internal/editor"

	"github.com/joho/godotenv"
)

func main() {
	id := flag.String("id", "", "Document id to open (empty creates a new document)")
	repoType := flag.String("type", "wods", "Repository type (wods, blocks, programs, documents, ...)")
	title := flag.String("title", "", "Set the document title")
	block := flag.String("block", "", "Append a block of this kind to the first page")
	watch := flag.Bool("watch", false, "Keep the session open, read edits from stdin and auto-save until interrupted")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger, closeLog := config.NewLogger(cfg, "editor")
	defer closeLog()

	if cfg.FunctionsURL == "" {
		log.Fatalf("SUPABASE_URL or FUNCTIONS_URL is required")
	}

	repositoryType, ok := content.ParseRepositoryType(*repoType)
	if !ok {
		log.Fatalf("Unknown repository type %q", *repoType)
	}

	blocks, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load block catalog: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := contentapi.NewClientFromConfig(cfg, logger)
	store := editor.NewStore(logger, editor.WithMessageTTL(cfg.MessageTTL))
	ed := editor.NewEditor(store, api, blocks, logger, cfg.AutoSaveInterval)
	defer ed.Close()

	if err := ed.Open(ctx, editor.OpenOptions{ID: *id, RepositoryType: repositoryType, Title: *title}); err != nil {
		log.Fatalf("Failed to open content: %v", err)
	}

	if *title != "" && *id != "" {
		store.UpdateContent(content.UpdateFields{Title: title})
	}

	if *block != "" {
		if err := ed.Exec(ctx, "block "+*block); err != nil {
			log.Fatalf("Failed to add block: %v", err)
		}
	}

	saved, err := ed.Save(ctx)
	if err != nil {
		log.Fatalf("Failed to save content: %v", err)
	}
	logger.Info("content ready",
		"id", saved.ID,
		"repository_type", saved.RepositoryType,
		"version", saved.Version,
		"session_id", store.SessionID(),
	)

	if !*watch {
		return
	}

	logger.Info("reading edits from stdin, auto-saving", "interval", cfg.AutoSaveInterval)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

edits:
	for {
		select {
		case <-ctx.Done():
			break edits
		case line, ok := <-lines:
			if !ok {
				break edits
			}
			if err := ed.Exec(ctx, line); err != nil {
				logger.Warn("edit rejected", "line", line, "error", err)
			}
		}
	}

	// One last explicit save so nothing typed in the session is lost
	if store.IsDirty() {
		if _, err := ed.Save(context.WithoutCancel(ctx)); err != nil {
			logger.Error("final save failed", "error", err)
		}
	}
	status := ed.AutoSaver().Status()
	logger.Info("editor closed", "snapshots", status.Saves, "failures", status.Failures, "last_success", status.LastSuccess)
}
