package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MarketBrief/internal/model"
	"MarketBrief/internal/portfolio"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and print the brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var (
	askPortfolio string
	askOffline   bool
)

func init() {
	askCmd.Flags().StringVar(&askPortfolio, "portfolio", "", "portfolio JSON file (defaults to portfolio.file from config)")
	askCmd.Flags().BoolVar(&askOffline, "offline", false, "use mock market data and no LLM or news providers")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := askPortfolio
	if path == "" {
		path = cfg.Portfolio.File
	}
	p, err := portfolio.Load(path)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.controller.Run(ctx, model.Query{Text: args[0], Portfolio: p, Source: "cli"})
	out := cmd.OutOrStdout()
	if res.Failed {
		fmt.Fprintf(os.Stderr, "Brief failed (%s):\n", res.Fatal)
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		return errors.New("no brief produced")
	}

	fmt.Fprintln(out, res.Narrative)
	if len(res.Errors) > 0 {
		fmt.Fprintf(out, "\n%d data issue(s):\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}
	return nil
}
