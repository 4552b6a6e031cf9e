// Command ehsctl runs operator tasks against the EHS database: schema
// migrations, rule seeding and an on-demand overdue sweep.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/app"
	"github.com/aawaaz/ehs-server/internal/config"
	"github.com/aawaaz/ehs-server/internal/database"
	"github.com/aawaaz/ehs-server/internal/logging"
	"github.com/aawaaz/ehs-server/internal/services"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "ehsctl",
		Usage: "EHS server operator tasks",
		Commands: []*cli.Command{
			migrateCommand(),
			seedRulesCommand(),
			sweepOverdueCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console", "ehsctl")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Sugar(), nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database schema migrations",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pool, err := database.NewPool(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func seedRulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-rules",
		Usage: "validate a rules file and upsert it into notification_rules",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Value: "rules.yaml", Usage: "YAML rules file"},
			&cli.BoolFlag{Name: "dry-run", Usage: "validate only"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			set, err := services.LoadRuleset(c.String("file"))
			if err != nil {
				return err
			}
			if c.Bool("dry-run") {
				fmt.Printf("%d rules OK\n", len(set.Rules()))
				return nil
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pool, err := database.NewPool(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return services.SeedRules(ctx, services.NewRuleStore(pool, logger), set, logger)
		},
	}
}

func sweepOverdueCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep-overdue",
		Usage: "run one overdue sweep now and deliver the queued email",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Overdue.Sweep(ctx)
			if err != nil {
				return err
			}
			if len(a.MailWorkers) > 0 {
				sent, err := a.MailWorkers[0].Drain(ctx)
				if err != nil {
					return err
				}
				logger.Infow("Mail queue drained", "messages", sent)
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
