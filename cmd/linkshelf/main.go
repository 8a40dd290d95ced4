package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "help", "--help", "-h":
		printHelp()
	case "add":
		runAdd(args)
	case "rm":
		requireArgs(args, 1, "linkshelf rm <link-id>")
		runRemove(args[0])
	case "mv":
		requireArgs(args, 2, "linkshelf mv <link-id> <collection>")
		runMove(args[0], strings.Join(args[1:], " "))
	case "ls":
		runList(strings.Join(args, " "))
	case "collections":
		runCollections()
	case "collection":
		runCollection(args)
	case "import":
		requireArgs(args, 1, "linkshelf import <file.html>")
		runImport(args[0])
	case "export":
		var outputPath string
		if len(args) >= 1 {
			outputPath = args[0]
		}
		runExport(outputPath)
	case "migrate":
		runMigrate()
	case "cull":
		runCull(args)
	default:
		// Anything else is a search query
		runQuickSearch(strings.Join(os.Args[1:], " "))
	}
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

func printHelp() {
	help := `linkshelf - collect links into collections

Usage:
  linkshelf <query>                       Fuzzy search by title, pick, open
  linkshelf add <url> [-c <collection>] [-t <title>]
                                          Fetch a preview and save the link
  linkshelf rm <link-id>                  Delete a link
  linkshelf mv <link-id> <collection>     Move a link to another collection
  linkshelf ls [collection]               List links (Recent lists all)
  linkshelf collections                   List collections
  linkshelf collection new <name>         Create a collection
  linkshelf collection rename <c> <name>  Rename a collection
  linkshelf collection rm <collection>    Delete a collection, links go to Recent
  linkshelf import <file.html>            Import a Netscape bookmark file
  linkshelf export [path]                 Export to a Netscape bookmark file
  linkshelf migrate                       Copy the JSON store into SQLite
  linkshelf cull [--delete]               Check links for dead URLs
  linkshelf help                          Show this help

Collections can be given by id or name.

Picker Keybindings:
  j/k         Move down/up
  Enter       Open link in browser
  y           Copy URL to clipboard
  q/Esc       Cancel

Environment:
  LINKPREVIEW_API_KEY        linkpreview.net key (required for add)
  SCREENSHOTMACHINE_API_KEY  screenshotmachine.com key for preview fallback
  LINKSHELF_LOG_LEVEL        debug, info, warn, error
  LINKSHELF_BACKEND          auto, json, sqlite

Data Storage:
  ~/.config/linkshelf/config.json
  ~/.config/linkshelf/link-collection-store.json (or .db)
`
	fmt.Print(help)
}
