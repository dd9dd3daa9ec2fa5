package main

import (
	"fmt"
	"log"

	"github.com/m3rciful/librobot/core/bootstrap"
	"github.com/m3rciful/librobot/core/cmd"
	"github.com/m3rciful/librobot/internal/bot"
	"github.com/m3rciful/librobot/internal/registry"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := bootstrap.Run(bootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return bot.NewApp(cfg, registry.NewPostgres(res.DB)), nil
		},
	})
	if err != nil {
		log.Fatalf("librobot: %v", err)
	}
}
