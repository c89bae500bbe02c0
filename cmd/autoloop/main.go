// Command autoloop runs an autonomous agent against a workspace, asking the
// user to authorize its commands unless told to run continuously.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

type cliFlags struct {
	AISettings      string
	PromptSettings  string
	Workspace       string
	ConfigDir       string
	Session         string
	Continuous      bool
	ContinuousLimit int
	Fast            bool
	Functions       bool
	EventsFile      string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("autoloop: %v", err)
	}
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("autoloop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.AISettings, "ai-settings", "", "Path to the AI settings YAML (name, role, goals)")
	fs.StringVar(&f.PromptSettings, "prompt-settings", "", "Path to the prompt settings YAML (constraints, resources, best practices)")
	fs.StringVar(&f.Workspace, "workspace", "", "Directory the file commands operate in (default: current directory)")
	fs.StringVar(&f.ConfigDir, "config-dir", "", "Directory holding config.json, sessions and memory (default: user config dir)")
	fs.StringVar(&f.Session, "session", "", "Resume a session by ID, or \"latest\"")
	fs.BoolVar(&f.Continuous, "continuous", false, "Run without asking for authorization")
	fs.IntVar(&f.ContinuousLimit, "continuous-limit", 0, "Stop continuous mode after N cycles (0 = no limit)")
	fs.BoolVar(&f.Fast, "fast", false, "Use the fast model instead of the smart one")
	fs.BoolVar(&f.Functions, "functions", false, "Offer commands through native function calling")
	fs.StringVar(&f.EventsFile, "events", "", "Append cycle events to this file as JSON lines")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if f.ContinuousLimit < 0 {
		return cliFlags{}, fmt.Errorf("-continuous-limit must not be negative")
	}
	if f.ContinuousLimit > 0 && !f.Continuous {
		return cliFlags{}, fmt.Errorf("-continuous-limit requires -continuous")
	}
	return f, nil
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer, getenv func(string) string) error {
	flags, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx, flags, getenv, out)
	if err != nil {
		return err
	}
	defer env.Close()

	loopErr := runLoop(ctx, env.Agent, loopOptions{
		In:         in,
		Out:        out,
		Continuous: flags.Continuous,
		AfterStep:  env.Persist,
	})
	env.Finish(ctx)
	return loopErr
}
