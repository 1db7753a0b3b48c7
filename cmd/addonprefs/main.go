// Command addonprefs validates extension preference manifests, previews
// their defaults and panels, and edits stored values from the terminal.
package main

import (
	"fmt"
	"io"
	"os"
)

const usage = `usage: addonprefs <command> [flags] <manifest>

commands:
  validate  check one or more manifests
  defaults  print the default values a manifest seeds
  show      print effective values, or the rendered panel with -html
  edit      edit stored values interactively
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "validate":
		err = runValidate(args[1:], stdout)
	case "defaults":
		err = runDefaults(args[1:], stdout)
	case "show":
		err = runShow(args[1:], stdout)
	case "edit":
		err = runEdit(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "addonprefs %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
