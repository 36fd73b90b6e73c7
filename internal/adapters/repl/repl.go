package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"production-ledger/internal/adapters/cli"
	"production-ledger/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop on stdin and stdout.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	run(ctx, svc, reader, os.Stdout)
}

// run reads slash commands from reader until /exit or end of input. One-shot
// commands go to the CLI dispatcher; wizards collect multi-line input.
func run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Production Ledger")
	fmt.Fprintf(out, "Allocation policy: %s\n", svc.Policy())
	fmt.Fprintln(out, "Type /help for commands, /exit to leave.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	w := &wizard{ctx: ctx, svc: svc, reader: reader, out: out}

	dispatch := func(input string) error {
		tokens, stdin := splitCommand(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "exit", "quit", "e", "q":
			return errExit
		case "help", "h":
			printHelp(out)
			return nil
		case "receive":
			return w.receive(args)
		case "new-recipe":
			return w.newRecipe(args)
		case "allocate":
			return w.allocate(args)
		case "allocate-sale":
			return w.allocateSale(args)
		}
		return cli.Exec(ctx, svc, append([]string{cmd}, args...), strings.NewReader(stdin), out)
	}

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if !strings.HasPrefix(input, "/") {
				fmt.Fprintln(out, "Commands start with a slash. Type /help.")
			} else if derr := dispatch(input); derr != nil {
				if errors.Is(derr, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", derr)
			}
		}
		if err != nil {
			return
		}
	}
}

// splitCommand splits a command line into fields. Double quotes group words;
// a field starting with '{' begins inline JSON which runs to the end of line.
func splitCommand(line string) (tokens []string, rest string) {
	var cur strings.Builder
	inQuote, started := false, false
	flush := func() {
		if started {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		started = false
	}
	for i, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == '{' && !inQuote && !started:
			flush()
			return tokens, line[i:]
		case (r == ' ' || r == '\t') && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()
	return tokens, ""
}
