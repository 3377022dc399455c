// Command stofhost is the CLI wrapper around package host (spec §6 "CLI
// / host API"): create a document, load a graph, run its `#[main]`
// functions, call a function by path, run its `#[test]` functions,
// export it, and flush its deadpool.
//
// The source-language parser that turns `.stof` text into graph edits
// is an external collaborator (spec §1) this repository does not
// implement; stofhost instead operates on `.bstf` binary graph dumps
// (spec §4.1, §6), the one serialization format the core spec owns
// end to end. A host embedding this module with a real `.stof` front
// end would call host.Document.LoadSource directly rather than through
// this CLI.
//
// Grounded on agentic-research-mache's cobra command-tree style
// (var rootCmd, subcommands added in init, RunE returning error rather
// than calling os.Exit directly).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
