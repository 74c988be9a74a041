package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"calc-history/internal/calculator"

	"github.com/spf13/cobra"
)

const replHelp = `keys: 0-9 . + - * / = Enter % c Escape Backspace Delete
words: history (toggle history), clear-history, help, quit`

func newReplCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read keys from stdin, one or more per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			return repl(cmd.InOrStdin(), cmd.OutOrStdout(), a.session)
		},
	}
}

func newEvalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "eval KEY...",
		Short:   "Apply keys and print the resulting display",
		Example: "  calc eval 2 + 3 '*' 4 =",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			var view calculator.View
			for _, arg := range args {
				for _, key := range splitKeys(arg) {
					_, res, err := a.session.Key(key)
					if err != nil {
						return fmt.Errorf("key %q: %w", key, err)
					}
					view = res.View
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Display)
			return nil
		},
	}
}

// repl applies every line of in to s, printing the view after each line.
func repl(in io.Reader, out io.Writer, s *calculator.Session) error {
	scanner := bufio.NewScanner(in)
	printView(out, s.View())

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit := false
		for _, word := range strings.Fields(line) {
			switch word {
			case "quit", "exit":
				quit = true
			case "help":
				fmt.Fprintln(out, replHelp)
			case "history":
				if _, err := s.Command("history"); err != nil {
					return err
				}
			case "clear-history":
				s.ClearHistory()
			default:
				for _, key := range splitKeys(word) {
					if _, _, err := s.Key(key); err != nil {
						fmt.Fprintf(out, "unknown key %q\n", key)
					}
				}
			}
			if quit {
				break
			}
		}
		if quit {
			return nil
		}
		printView(out, s.View())
	}
	return scanner.Err()
}

// splitKeys breaks a word such as "12+3=" into single keys. Named keys
// (Enter, Backspace, ...) are kept whole.
func splitKeys(word string) []string {
	if _, err := calculator.ParseKey(word); err == nil {
		return []string{word}
	}
	keys := make([]string, 0, len(word))
	for _, r := range word {
		keys = append(keys, string(r))
	}
	return keys
}

func printView(out io.Writer, v calculator.View) {
	if v.Expression != "" {
		fmt.Fprintf(out, "%s  %s\n", v.Expression, v.Display)
	} else {
		fmt.Fprintln(out, v.Display)
	}

	if v.HistoryVisible {
		if len(v.History) == 0 {
			fmt.Fprintln(out, "  (no history)")
		}
		for _, text := range v.History {
			fmt.Fprintf(out, "  %s\n", text)
		}
	}
}
