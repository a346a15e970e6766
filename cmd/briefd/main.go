package main

import (
	"fmt"
	"os"

	"MarketBrief/internal/config"
	"MarketBrief/internal/logger"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
)

var (
	cfgPath string
	cfg     *config.Config
	log     arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "briefd",
	Short: "Market brief generator",
	Long: `briefd answers natural-language questions about stocks with a market brief
built from live quotes, price history and recent news.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("offline") {
			if offline, _ := cmd.Flags().GetBool("offline"); offline {
				cfg.LLM.Provider = "offline"
				cfg.MarketData.Provider = "mock"
				cfg.News.Provider = "none"
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log = logger.New(cfg.Logging)
		return nil
	},
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "config file")
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
