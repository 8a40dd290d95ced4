package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/linkshelf/internal/culler"
	"github.com/nikbrunner/linkshelf/internal/exporter"
	"github.com/nikbrunner/linkshelf/internal/importer"
	"github.com/nikbrunner/linkshelf/internal/ingest"
	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/nikbrunner/linkshelf/internal/picker"
	"github.com/nikbrunner/linkshelf/internal/preview"
	"github.com/nikbrunner/linkshelf/internal/search"
	"github.com/nikbrunner/linkshelf/internal/storage"
)

// runAdd handles the add subcommand. Flags may follow the URL.
func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	collection := fs.String("c", "", "collection id or name")
	title := fs.String("t", "", "title to use when the preview has none")
	_ = fs.Parse(args)

	var input string
	if fs.NArg() > 0 {
		input = fs.Arg(0)
		_ = fs.Parse(fs.Args()[1:])
	}

	a := loadApp()
	defer a.close()

	collectionID := ""
	switch {
	case *collection != "":
		c, err := a.resolveCollection(*collection)
		if err != nil {
			fatal("adding link", err)
		}
		collectionID = c.ID
	case a.cfg.DefaultCollection != "":
		if c, err := a.resolveCollection(a.cfg.DefaultCollection); err == nil {
			collectionID = c.ID
		} else {
			a.log.Warn().Str("collection", a.cfg.DefaultCollection).Msg("default collection not found, using Recent")
		}
	}

	opts := a.cfg.PreviewOptions()
	opts.Logger = a.log
	client, err := preview.NewClient(opts)
	if err != nil {
		fatal("creating preview client", fmt.Errorf("%w (set %s)", err, storage.EnvPreviewKey))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	link, err := ingest.New(a.store, client, a.log).Add(ctx, ingest.Request{
		Input:         input,
		CollectionID:  collectionID,
		FallbackTitle: *title,
	})
	if err != nil {
		fatal("adding link", err)
	}

	fmt.Printf("Added %s (%s) to %s\n", link.Title, link.ID, search.CollectionName(a.store, link.CollectionID))
}

// runRemove handles the rm subcommand.
func runRemove(linkID string) {
	a := loadApp()
	defer a.close()

	link, ok := a.store.Link(linkID)
	if !ok {
		fmt.Printf("No link with id %s\n", linkID)
		return
	}
	a.store.DeleteLink(linkID)
	fmt.Printf("Deleted %s\n", link.Title)
}

// runMove handles the mv subcommand.
func runMove(linkID, collectionArg string) {
	a := loadApp()
	defer a.close()

	link, ok := a.store.Link(linkID)
	if !ok {
		fatal("moving link", fmt.Errorf("no link with id %s", linkID))
	}
	c, err := a.resolveCollection(collectionArg)
	if err != nil {
		fatal("moving link", err)
	}
	if err := a.store.MoveLinkToCollection(linkID, c.ID); err != nil {
		fatal("moving link", err)
	}
	fmt.Printf("Moved %s to %s\n", link.Title, c.Name)
}

// runList handles the ls subcommand.
func runList(collectionArg string) {
	a := loadApp()
	defer a.close()

	c := model.RecentCollection()
	if collectionArg != "" {
		var err error
		if c, err = a.resolveCollection(collectionArg); err != nil {
			fatal("listing links", err)
		}
	}

	links := a.store.LinksInView(c.ID)
	fmt.Printf("%s (%d)\n", c.Name, len(links))
	for _, l := range links {
		fmt.Printf("  %s  %s\n", l.ID, l.Title)
		fmt.Printf("      %s", l.URL)
		if c.IsRecent() && l.CollectionID != model.RecentCollectionID {
			fmt.Printf("  [%s]", search.CollectionName(a.store, l.CollectionID))
		}
		fmt.Println()
	}
}

// runCollections handles the collections subcommand.
func runCollections() {
	a := loadApp()
	defer a.close()

	for _, c := range a.store.Collections() {
		fmt.Printf("%s  %s (%d)\n", c.ID, c.Name, len(a.store.LinksInView(c.ID)))
	}
}

// runCollection handles collection new|rename|rm.
func runCollection(args []string) {
	const usage = "linkshelf collection new <name> | rename <collection> <name> | rm <collection>"
	requireArgs(args, 2, usage)

	a := loadApp()
	defer a.close()

	switch args[0] {
	case "new":
		c, err := a.store.CreateCollection(strings.Join(args[1:], " "))
		if err != nil {
			fatal("creating collection", err)
		}
		fmt.Printf("Created %s (%s)\n", c.Name, c.ID)

	case "rename":
		requireArgs(args, 3, usage)
		c, err := a.resolveCollection(args[1])
		if err != nil {
			fatal("renaming collection", err)
		}
		name := strings.Join(args[2:], " ")
		if err := a.store.RenameCollection(c.ID, name); err != nil {
			fatal("renaming collection", err)
		}
		fmt.Printf("Renamed %s to %s\n", c.Name, strings.TrimSpace(name))

	case "rm":
		c, err := a.resolveCollection(strings.Join(args[1:], " "))
		if err != nil {
			fatal("deleting collection", err)
		}
		if c.IsRecent() {
			fatal("deleting collection", model.ErrProtectedCollection)
		}
		moved := len(a.store.LinksInCollection(c.ID))
		a.store.DeleteCollection(c.ID)
		fmt.Printf("Deleted %s, moved %d links to %s\n", c.Name, moved, model.RecentCollectionName)

	default:
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

// runImport handles the import subcommand.
func runImport(filePath string) {
	file, err := os.Open(filePath)
	if err != nil {
		fatal("opening file", err)
	}
	defer file.Close()

	collections, links, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		fatal("parsing HTML", err)
	}

	a := loadApp()
	defer a.close()

	added, skipped := a.store.ImportMerge(collections, links)

	fmt.Printf("Imported %d links, %d collections", added, len(collections))
	if skipped > 0 {
		fmt.Printf(" (%d duplicates skipped)", skipped)
	}
	fmt.Println()
}

// runExport handles the export subcommand.
func runExport(outputPath string) {
	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			fatal("getting default export path", err)
		}
	}

	a := loadApp()
	defer a.close()

	html := exporter.ExportHTML(a.store)
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fatal("writing file", err)
	}

	fmt.Printf("Exported %d links, %d collections to %s\n",
		len(a.store.Links()), len(a.store.Collections())-1, outputPath)
}

// runMigrate copies the JSON store into the SQLite database.
func runMigrate() {
	a := loadApp()
	defer a.close()

	src := storage.NewJSONStorage(a.cfg.JSONPath)
	snap, err := src.Load()
	if err != nil {
		fatal("loading JSON store", err)
	}

	dst, err := storage.NewSQLiteStorage(a.cfg.SQLitePath)
	if err != nil {
		fatal("opening SQLite", err)
	}
	defer dst.Close()

	// Repair before writing so foreign keys hold.
	snap = model.NewStoreFromSnapshot(snap).Snapshot()
	if err := dst.Save(snap); err != nil {
		fatal("writing SQLite", err)
	}

	fmt.Printf("Migrated %d links, %d collections to %s\n",
		len(snap.Links), len(snap.Collections), dst.Path())
}

// runCull checks every link and optionally deletes the dead ones.
func runCull(args []string) {
	fs := flag.NewFlagSet("cull", flag.ExitOnError)
	remove := fs.Bool("delete", false, "delete dead links")
	rps := fs.Float64("rps", 5, "max requests per second, 0 for no limit")
	_ = fs.Parse(args)

	a := loadApp()
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	links := a.store.Links()
	fmt.Printf("Checking %d links...\n", len(links))

	results := culler.CheckLinks(ctx, links, culler.Options{
		Concurrency:    a.cfg.CullConcurrency,
		Timeout:        culler.DefaultTimeout,
		RequestsPerSec: *rps,
		ExcludeDomains: a.cfg.CullExcludeDomains,
		Logger:         a.log,
	})

	unreachable := 0
	for _, r := range results {
		switch r.Status {
		case culler.Dead:
			fmt.Printf("  dead         %d  %s  %s\n", r.StatusCode, r.Link.ID, r.Link.URL)
		case culler.Unreachable:
			unreachable++
			fmt.Printf("  unreachable  %s  %s  (%s)\n", r.Link.ID, r.Link.URL, r.Error)
		}
	}

	dead := culler.FilterDead(results)
	fmt.Printf("%d dead, %d unreachable\n", len(dead), unreachable)

	if *remove {
		for _, r := range dead {
			a.store.DeleteLink(r.Link.ID)
		}
		fmt.Printf("Deleted %d dead links\n", len(dead))
	}
}

// runQuickSearch performs a fuzzy search and opens the selected link.
func runQuickSearch(query string) {
	a := loadApp()
	defer a.close()

	results := search.FuzzySearchLinks(a.store, query)
	if len(results) == 0 {
		fmt.Printf("No links found for '%s'\n", query)
		return
	}

	var selected *model.Link
	if len(results) == 1 {
		selected = &results[0].Link
		fmt.Printf("Opening: %s\n", selected.Title)
	} else {
		p := picker.New(results, query)
		finalModel, err := tea.NewProgram(p).Run()
		if err != nil {
			fatal("running picker", err)
		}

		finalPicker := finalModel.(picker.Picker)
		if finalPicker.Cancelled() {
			return
		}
		selected = finalPicker.SelectedLink()
	}

	if selected == nil {
		return
	}
	if err := openURL(selected.URL); err != nil {
		fatal("opening browser", err)
	}
}
