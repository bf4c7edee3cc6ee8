// Package cli holds the operator commands of the printdesk binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"
)

// JobQueue is what the jobs command needs from JobsCLI.
type JobQueue interface {
	Trigger(ctx context.Context, name, arg string) (*asynq.TaskInfo, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// Env supplies the backends lazily so that print-fit runs without any.
type Env struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Statements func(ctx context.Context) (StatementService, func(), error)
	Jobs       func() JobQueue
}

const usage = `usage: printdesk <command> [flags]

commands:
  serve                          run the HTTP API (default)
  print-fit  -width W -height H  fit a print to the roll catalog
  ledger     -type T -id N       print a supplier or agent ledger
  jobs       trigger NAME [ARG]  enqueue ledger:warmup or ledger:invalidate
  jobs       stats               show default queue counters
`

// ErrUnknownCommand is reported for unsupported command names.
var ErrUnknownCommand = errors.New("cli: unknown command")

// IsCommand reports whether name is handled by Run.
func IsCommand(name string) bool {
	switch name {
	case "print-fit", "ledger", "jobs", "help", "-h", "--help":
		return true
	}
	return false
}

// Run executes one operator command and returns the process exit code.
func (e Env) Run(ctx context.Context, args []string) int {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprint(e.Stderr, usage)
		return 1
	}
	switch args[0] {
	case "print-fit":
		return e.printFit(args[1:])
	case "ledger":
		return e.ledger(ctx, args[1:])
	case "jobs":
		return e.jobs(ctx, args[1:])
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(e.Stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(e.Stderr, "%v: %s\n%s", ErrUnknownCommand, args[0], usage)
		return 1
	}
}

func (e Env) printFit(args []string) int {
	fs := flag.NewFlagSet("print-fit", flag.ContinueOnError)
	fs.SetOutput(e.Stderr)
	opts := PrintFitOptions{Stdout: e.Stdout, Stderr: e.Stderr}
	fs.Float64Var(&opts.Width, "width", 0, "print width")
	fs.Float64Var(&opts.Height, "height", 0, "print height")
	fs.StringVar(&opts.Unit, "unit", "feet", "inches or feet")
	fs.StringVar(&opts.Rate, "rate", "", "price per billed square foot")
	fs.IntVar(&opts.Quantity, "qty", 1, "number of copies")
	fs.StringVar(&opts.Lang, "lang", "en", "display locale")
	fs.BoolVar(&opts.JSONOutput, "json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return PrintFitCommand(opts)
}

func (e Env) ledger(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(e.Stderr)
	opts := LedgerOptions{Stdout: e.Stdout, Stderr: e.Stderr}
	fs.StringVar(&opts.AccountType, "type", "supplier", "supplier or agent")
	fs.Int64Var(&opts.AccountID, "id", 0, "account id")
	fs.IntVar(&opts.Limit, "limit", 0, "show at most N entries (0 = all)")
	fs.StringVar(&opts.Lang, "lang", "en", "display locale")
	fs.BoolVar(&opts.JSONOutput, "json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if e.Statements == nil {
		_, _ = fmt.Fprintln(e.Stderr, "ledger: statement service not configured")
		return 1
	}
	svc, done, err := e.Statements(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(e.Stderr, "ledger: %v\n", err)
		return 1
	}
	if done != nil {
		defer done()
	}
	return LedgerCommand(ctx, svc, opts)
}

func (e Env) jobs(ctx context.Context, args []string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(e.Stderr, usage)
		return 1
	}
	if e.Jobs == nil {
		_, _ = fmt.Fprintln(e.Stderr, "jobs: queue not configured")
		return 1
	}
	queue := e.Jobs()
	defer func() { _ = queue.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(e.Stderr, "jobs trigger: job name required")
			return 1
		}
		arg := ""
		if len(args) > 2 {
			arg = args[2]
		}
		info, err := queue.Trigger(ctx, args[1], arg)
		if err != nil {
			_, _ = fmt.Fprintf(e.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(e.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := queue.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(e.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		if err := json.NewEncoder(e.Stdout).Encode(stats); err != nil {
			return 1
		}
		return 0
	default:
		_, _ = fmt.Fprintf(e.Stderr, "jobs: unknown subcommand %q\n", args[0])
		return 1
	}
}
