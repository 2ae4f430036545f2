// Command finctl is a terminal client for the personal-finance backend.
// Every invocation restores the stored session, runs one command and exits.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"finance-client/internal/api"
	"finance-client/internal/config"
	"finance-client/internal/ledger"
	"finance-client/internal/log"
	"finance-client/internal/storage"

	"golang.org/x/term"
)

const usage = `Usage: finctl [-api URL] [-db PATH] [-json] [-v] <command> [flags] [args]

Commands:
  login     -email E [-password P]
  register  -email E -first F -last L [-password P]
  logout
  whoami
  sessions
  tx        list [-from D] [-to D] | add -amount A -type T -desc TEXT [-date D] [-category ID] | rm ID
  cat       list | add -name N -type T [-color #hex] | rm ID
  summary   [-from D] [-to D]
  product   list | get ID | add -name N -price P [-desc D] | update ID [-name N] [-price P] [-desc D] | rm ID
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs.
type app struct {
	ctrl   *ledger.Controller
	client *api.Client
	db     *storage.DB
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	json   bool
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":    cmdLogin,
	"register": cmdRegister,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"sessions": cmdSessions,
	"tx":       cmdTx,
	"cat":      cmdCat,
	"summary":  cmdSummary,
	"product":  cmdProduct,
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("finctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	apiURL := fs.String("api", cfg.APIURL, "Backend base URL")
	dbPath := fs.String("db", cfg.DBPath, "Path to the session database")
	jsonOut := fs.Bool("json", false, "Print JSON instead of tables")
	verbose := fs.Bool("v", false, "Log requests and state changes to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg.APIURL = strings.TrimSuffix(*apiURL, "/")
	cfg.DBPath = *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, *verbose, stderr)
	log.SetDefault(logger)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	opts := []api.Option{api.WithLogger(logger)}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, api.WithTimeout(cfg.HTTPTimeout))
	}
	client := api.NewClient(cfg.APIURL, opts...)
	ctrl := ledger.New(client, db, cfg.APIURL, ledger.WithLogger(logger))

	stateLog := logger.WithComponent(log.ComponentCLI)
	unsubscribe := ctrl.Subscribe(func(st ledger.State) {
		stateLog.Debug("state changed",
			"authenticated", st.Authenticated,
			"transactions", len(st.Transactions),
			"categories", len(st.Categories),
			"summary_loaded", st.Summary != nil)
	})
	defer unsubscribe()

	ctx := context.Background()
	if err := ctrl.Open(ctx); err != nil {
		return err
	}

	a := &app{
		ctrl:   ctrl,
		client: client,
		db:     db,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		json:   *jsonOut,
	}
	return cmd(ctx, a, fs.Args()[1:])
}

// newLogger writes to stderr. Without -v or LOG_LEVEL the CLI stays quiet
// and reports failures through its exit status only.
func newLogger(level string, verbose bool, stderr io.Writer) *log.Logger {
	cfg := log.Config{Component: log.ComponentCLI, Output: stderr}
	switch {
	case verbose:
		cfg.Level = slog.LevelDebug
	case level != "":
		cfg.Level, _ = log.ParseLevel(level)
	default:
		cfg.Output = io.Discard
	}
	return log.New(cfg)
}

// explain turns controller and client errors into messages for the terminal.
func explain(op string, err error) error {
	var verrs api.ValidationErrors
	var apiErr *api.Error
	switch {
	case errors.Is(err, ledger.ErrNotAuthenticated):
		return ledger.ErrNotAuthenticated
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%s: session expired, log in again", op)
	case errors.As(err, &verrs):
		return fmt.Errorf("%s: %w", op, verrs)
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s failed: %s", op, apiErr.Message)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
