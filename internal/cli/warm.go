package cli

import (
	"context"
	"fmt"
	"sort"

	"aiornot-quiz-service/internal/config"
	"aiornot-quiz-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewWarmCmd pre-generates images so the first players of a topic do not wait for generation.
func NewWarmCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "warm [topic...]",
		Short: "Fill topic namespaces up to the target image count (all catalog topics by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarm(cmd.Context(), *configPath, args)
		},
	}
}

func runWarm(ctx context.Context, configPath string, topics []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	rt, err := buildServices(ctx, cfg, "http://localhost:"+cfg.Server.Port, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	counts, err := rt.games.Warm(ctx, topics...)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-12s %d images\n", name, counts[name])
	}
	return err
}
