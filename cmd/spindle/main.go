// Command spindle builds and runs the spindle_v3 pipeline: DV360 reports,
// SDF downloads and BigQuery loads.
//
//	spindle run   [-config path]                   build and execute the DAG once
//	spindle graph [-config path] [-format yaml|json] print the constructed DAG
//	spindle serve [-config path]                   start the admin server
//	spindle version                                print the build version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/spindle/version"
)

const usage = `usage: spindle <command> [flags]

commands:
  run      build and execute the DAG once
  graph    print the constructed DAG
  serve    start the admin server
  version  print the build version`

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.msg)
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return &exitError{code: 2, msg: usage}
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		return runCommand(ctx, rest)
	case "graph":
		return graphCommand(ctx, rest, stdout)
	case "serve":
		return serveCommand(ctx, rest)
	case "version":
		_, err := fmt.Fprintln(stdout, version.Get().Short())
		return err
	case "-h", "--help", "help":
		_, err := fmt.Fprintln(stdout, usage)
		return err
	default:
		return &exitError{code: 2, msg: fmt.Sprintf("unknown command %q\n\n%s", cmd, usage)}
	}
}
