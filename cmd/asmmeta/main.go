package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/provenance"
)

// Exit codes, one per error kind, so scripts can branch on the outcome
// without parsing output.
const (
	exitOK                   = 0
	exitFileUnreadable       = 1
	exitInvalidContainer     = 2
	exitNotManaged           = 3
	exitMalformedTableStream = 4
	exitNoMetadata           = 5
	exitIncompleteMetadata   = 6
)

func main() {
	var (
		jsonOut     = flag.Bool("json", false, "Emit the result as JSON")
		verbose     = flag.Bool("v", false, "Enable debug logging to stderr")
		interactive = flag.Bool("i", false, "Interactive metadata inspector")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: asmmeta [-json] [-v] <assembly.dll>")
		fmt.Fprintln(os.Stderr, "       asmmeta -i <assembly.dll>  (interactive inspector)")
		os.Exit(exitFileUnreadable)
	}
	path := flag.Arg(0)

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			provenance.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if *interactive {
		if err := runInteractive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFileUnreadable)
		}
		return
	}

	result, err := extract(path)
	if *jsonOut {
		printJSON(result, err)
	} else {
		printText(result, err)
	}
	os.Exit(exitCode(err))
}

func extract(path string) (*provenance.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileUnreadable(path, err)
	}
	return provenance.Extract(data)
}

func exitCode(err error) int {
	switch errors.KindOf(err) {
	case "":
		if err != nil {
			return exitFileUnreadable
		}
		return exitOK
	case errors.KindFileUnreadable:
		return exitFileUnreadable
	case errors.KindNotManaged:
		return exitNotManaged
	case errors.KindMalformedTableStream:
		return exitMalformedTableStream
	case errors.KindNoMetadata:
		return exitNoMetadata
	case errors.KindIncompleteMetadata:
		return exitIncompleteMetadata
	default:
		return exitInvalidContainer
	}
}

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func printText(result *provenance.Result, err error) {
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	line := func(label, value string) {
		if styled {
			fmt.Println(labelStyle.Render(label+":") + " " + valueStyle.Render(value))
		} else {
			fmt.Printf("%s: %s\n", label, value)
		}
	}

	if result != nil {
		if result.RepositoryURL != "" {
			line("repository", result.RepositoryURL)
		}
		if result.CommitSHA != "" {
			line("commit", result.CommitSHA)
		}
	}
	if err != nil {
		msg := err.Error()
		if styled {
			msg = warnStyle.Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
	}
}

// jsonResult is the machine-readable output shape. The error kind rides
// along so consumers need not map exit codes back to names.
type jsonResult struct {
	RepositoryURL string `json:"repositoryUrl,omitempty"`
	CommitSHA     string `json:"commitSha,omitempty"`
	Error         string `json:"error,omitempty"`
}

func printJSON(result *provenance.Result, err error) {
	out := jsonResult{}
	if result != nil {
		out.RepositoryURL = result.RepositoryURL
		out.CommitSHA = result.CommitSHA
	}
	if err != nil {
		if kind := errors.KindOf(err); kind != "" {
			out.Error = string(kind)
		} else {
			out.Error = err.Error()
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
