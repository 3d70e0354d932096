// Command obwire encodes, decodes and serves order book messages.
//
// Usage:
//
//	obwire encode -type AddOrderRequest -json order.json
//	obwire decode -type OrderResponse 0a0b...
//	obwire call -method AddOrder -json order.json
//	obwire serve -listen :50051
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const usage = `usage: obwire <command> [flags]

commands:
  encode   encode a JSON object as a message and print it as hex
  decode   decode a hex message and print it as JSON
  call     perform one unary call against an order book server
  serve    run an in-memory order book server
`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "obwire:", err)
		}
		os.Exit(1)
	}
}

type command func(env *env, args []string) error

var commands = map[string]command{
	"encode": runEncode,
	"decode": runDecode,
	"call":   runCall,
	"serve":  runServe,
}

// env is what a command sees of the process
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    config
	logger zerolog.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
	return cmd(&env{stdin: stdin, stdout: stdout, stderr: stderr}, args[1:])
}

// commonFlags are accepted by every command. Flags given on the command
// line override the config file.
type commonFlags struct {
	configPath string
	address    string
	timeout    time.Duration
	logLevel   string
	proto      string
}

func newFlagSet(e *env, name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "TOML config file")
	fs.StringVar(&c.address, "address", "", "server address")
	fs.DurationVar(&c.timeout, "timeout", 0, "call timeout")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&c.proto, "proto", "", "extra .proto file or directory to load")
	return fs, c
}

// parse parses args and resolves the config, then sets up the logger
func (e *env) parse(fs *flag.FlagSet, c *commonFlags, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Address = c.address
		case "timeout":
			cfg.Timeout = c.timeout
		case "proto":
			cfg.ProtoPath = c.proto
		case "log-level":
			level, err := zerolog.ParseLevel(c.logLevel)
			if err != nil {
				flagErr = fmt.Errorf("parse -log-level: %w", err)
				return
			}
			cfg.LogLevel = level
		}
	})
	if flagErr != nil {
		return flagErr
	}

	e.cfg = cfg
	output := zerolog.ConsoleWriter{Out: e.stderr, TimeFormat: time.RFC3339}
	e.logger = zerolog.New(output).Level(cfg.LogLevel).With().Timestamp().Str("app", "obwire").Logger()
	return nil
}
