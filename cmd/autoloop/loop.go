package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/autoloop/internal/commands/builtin"
	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// defaultMaxInvalid is how many unparseable replies in a row end the run.
const defaultMaxInvalid = 3

type loopOptions struct {
	In         io.Reader
	Out        io.Writer
	Continuous bool
	MaxInvalid int
	AfterStep  func(ctx context.Context, a *engine.Agent) error
}

type replyKind int

const (
	replyAuthorize replyKind = iota
	replyExit
	replyFeedback
)

type reply struct {
	kind     replyKind
	cycles   int
	feedback string
}

// parseReply interprets the user's answer to an authorization prompt:
// "y" authorizes one command, "y -N" authorizes N, "n" exits and anything
// else is feedback for the agent.
func parseReply(line string) (reply, error) {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)
	switch {
	case lower == "":
		return reply{}, errors.New("empty reply")
	case lower == "y":
		return reply{kind: replyAuthorize, cycles: 1}, nil
	case lower == "n":
		return reply{kind: replyExit}, nil
	case strings.HasPrefix(lower, "y -"):
		n, err := strconv.Atoi(strings.TrimSpace(lower[len("y -"):]))
		if err != nil || n <= 0 {
			return reply{}, fmt.Errorf("invalid input format: use 'y -N' with N a positive number")
		}
		return reply{kind: replyAuthorize, cycles: n}, nil
	default:
		return reply{kind: replyFeedback, feedback: line}, nil
	}
}

// askAuthorization prompts until the user gives a usable reply. End of input
// counts as "n".
func askAuthorization(s *bufio.Scanner, out io.Writer, aiName string) reply {
	for {
		fmt.Fprintf(out, "Enter 'y' to authorise command, 'y -N' to run N continuous commands, 'n' to exit program, or enter feedback for %s...\n", aiName)
		fmt.Fprint(out, "Input: ")
		if !s.Scan() {
			fmt.Fprintln(out)
			return reply{kind: replyExit}
		}
		r, err := parseReply(s.Text())
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		return r
	}
}

// runLoop drives think/execute cycles until the agent finishes, the user
// exits or continuous mode uses up its limit.
func runLoop(ctx context.Context, a *engine.Agent, opts loopOptions) error {
	maxInvalid := opts.MaxInvalid
	if maxInvalid <= 0 {
		maxInvalid = defaultMaxInvalid
	}
	scanner := bufio.NewScanner(opts.In)
	name := a.Config().Profile.Name
	invalid := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.Continuous && a.Halted() {
			fmt.Fprintln(opts.Out, "Continuous limit reached.")
			return nil
		}

		out, err := a.Think(ctx, "")
		var invalidErr *engine.InvalidAgentResponseError
		if errors.As(err, &invalidErr) {
			invalid++
			if invalid >= maxInvalid {
				return fmt.Errorf("%d invalid responses in a row: %w", invalid, err)
			}
			continue
		}
		if err != nil {
			return err
		}
		invalid = 0

		var feedback string
		if a.Halted() {
			r := askAuthorization(scanner, opts.Out, name)
			switch r.kind {
			case replyExit:
				fmt.Fprintln(opts.Out, "Exiting...")
				return nil
			case replyAuthorize:
				a.AuthorizeCycles(r.cycles)
			case replyFeedback:
				feedback = r.feedback
			}
		}

		result, err := a.Execute(ctx, out, feedback)
		if err != nil {
			return err
		}
		if opts.AfterStep != nil {
			if err := opts.AfterStep(ctx, a); err != nil {
				return err
			}
		}

		if out.CommandName == builtin.FinishName && result.Status == engine.StatusSuccess {
			fmt.Fprintf(opts.Out, "%s finished: %s\n", name, result.Output)
			return nil
		}
	}
}
