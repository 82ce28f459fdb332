package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakekang28/GenAIHCI-sub001/internal/config"
	"github.com/jakekang28/GenAIHCI-sub001/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "workshop",
	Short: "Real-time room coordination and voting server",
	Long: `workshop hosts live design-thinking rooms: participants join over
websocket, contribute ideas per stage and vote on the ones that move forward.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.New(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./workshop.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
