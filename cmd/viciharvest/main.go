// Package main provides the entry point for the viciharvest CLI.
//
// viciharvest collects Latin literary works from la.wikisource.org.
// It classifies each requested page as a single work or a chapter
// index, resolves chapter lists, and downloads clean plain text.
//
// Usage:
//
//	viciharvest harvest Aeneis "Commentarii de bello Gallico"
//	viciharvest harvest --list works.yaml
//
// See --help for all available options.
package main

// main is the entry point for viciharvest.
func main() {
	Execute()
}
