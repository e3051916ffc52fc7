package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/render"
)

// answerer answers one query. *pipeline.Pipeline satisfies it.
type answerer interface {
	Answer(ctx context.Context, query string) model.Result
}

const exampleQuery = "Estimate the price of a 3 BHK apartment in Koramangala, Bangalore with 1500 sq.ft area."

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a real estate question",
	Long:  "Answers a single question, or starts an interactive session when no question is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnswer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if cfg.Data.Watch {
			go func() { _ = env.Cache.Watch(ctx) }()
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		interactive, _ := cmd.Flags().GetBool("interactive")
		query := strings.TrimSpace(strings.Join(args, " "))

		if query == "" || interactive {
			return runREPL(ctx, env.Pipeline, cmd.InOrStdin(), cmd.OutOrStdout(), asJSON)
		}
		return askOnce(ctx, env.Pipeline, query, cmd.OutOrStdout(), asJSON)
	},
}

func askOnce(ctx context.Context, a answerer, query string, out io.Writer, asJSON bool) error {
	return printResult(out, a.Answer(ctx, query), asJSON)
}

func printResult(out io.Writer, res model.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return eris.Wrap(enc.Encode(res), "ask: encode result")
	}
	_, err := fmt.Fprintln(out, render.ForWriter(out, res))
	return err
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// runREPL answers queries read line by line from in until EOF or an exit
// command.
func runREPL(ctx context.Context, a answerer, in io.Reader, out io.Writer, asJSON bool) error {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(out, "\n%s\nREAL ESTATE PRICE PREDICTION CLI\n%s\n\n", rule, rule)
	fmt.Fprintf(out, "Available cities: %s\n", strings.Join(model.Cities, ", "))
	fmt.Fprintf(out, "Example query: %s\n\n", exampleQuery)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter your query (or 'exit' to quit): ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return eris.Wrap(sc.Err(), "ask: read query")
		}
		line := strings.TrimSpace(sc.Text())
		if isExit(line) {
			fmt.Fprintln(out, "\nThank you for using Real Estate Price Predictor!")
			return nil
		}
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(out, "\nProcessing your query...\n\n")
		if err := printResult(out, a.Answer(ctx, line), asJSON); err != nil {
			return err
		}
		fmt.Fprint(out, "\n\n")
	}
}

func init() {
	askCmd.Flags().Bool("json", false, "print the raw result as JSON")
	askCmd.Flags().BoolP("interactive", "i", false, "start an interactive session")
	rootCmd.AddCommand(askCmd)
}
