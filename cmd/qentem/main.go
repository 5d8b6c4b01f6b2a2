// cmd/qentem/main.go
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"qentem/internal/template"
	"qentem/internal/value"
)

const version = "1.0.0"

var commandAliases = map[string]string{
	"r": "render",
	"j": "json",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main's logic minus the process-exit call, so main_test.go can
// register it with testscript.RunMain, which re-invokes the test binary as
// the qentem command for each script line that calls it.
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 0
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return 0
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("qentem", version)
		return 0
	}

	switch cmd {
	case "render":
		if err := renderCommand(args[1:]); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
	case "json":
		if err := jsonCommand(args[1:]); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		showUsage()
		return 1
	}
	return 0
}

// renderCommand reads a template file and a JSON data file, then writes the
// rendered result to stdout: `qentem render <template.qtpl> <data.json>`.
func renderCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: qentem render <template-file> <data-file.json>")
	}
	tmplBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading template %s: %w", args[0], err)
	}
	dataBytes, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading data %s: %w", args[1], err)
	}
	root, err := value.Parse(string(dataBytes))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[1], err)
	}
	r := template.New(template.DefaultOptions())
	out, err := r.Render(string(tmplBytes), root)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}
	fmt.Print(out)
	return nil
}

// jsonCommand reads a JSON document (from a file argument, or stdin when
// none is given) and re-emits it through Parse+Stringify, a quick way to
// confirm a document round-trips through the Value tree.
func jsonCommand(args []string) error {
	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}
	v, err := value.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	fmt.Println(value.ToJSONString(v))
	return nil
}

func showUsage() {
	fmt.Println("Qentem - text template engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  qentem render <template-file> <data-file.json>   Render a template against JSON data (alias: r)")
	fmt.Println("  qentem json [file]                               Parse JSON and re-emit it canonically (alias: j)")
	fmt.Println()
	fmt.Println("Help:")
	fmt.Println("  qentem help                                      Show this message")
	fmt.Println("  qentem --version                                 Show version")
}
