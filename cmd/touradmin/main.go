// Command touradmin runs the admin dashboard queries from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	appLogger "github.com/FACorreiaa/go-tourease-suggestions/app/logger"
	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/container"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

func main() {
	_ = godotenv.Load()

	app := cli.App{
		Name:        "touradmin",
		Description: "admin queries over TourEase users and search histories",
		Commands: []*cli.Command{{
			Name:        "histories",
			Description: "print every user's search history as JSON",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Usage: "maximum entries per user; 0 reads everything",
				},
			},
			Action: withContainer(func(c *container.Container, ctx *cli.Context) error {
				entries, err := c.HistoryService.ListAll(ctx.Context, types.HistoryListOptions{
					PerUserLimit: ctx.Int("limit"),
				})
				if err != nil {
					return err
				}
				return printJSON(entries)
			}),
		}, {
			Name:        "signups",
			Description: "print the number of new users per day",
			Action: withContainer(func(c *container.Container, ctx *cli.Context) error {
				days, err := c.UserService.DailySignups(ctx.Context)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tSIGNUPS")
				for _, d := range days {
					fmt.Fprintf(w, "%s\t%d\n", d.Date, d.Count)
				}
				return w.Flush()
			}),
		}, {
			Name:        "users",
			Description: "print every user profile as JSON",
			Action: withContainer(func(c *container.Container, ctx *cli.Context) error {
				profiles, err := c.UserService.ListProfiles(ctx.Context)
				if err != nil {
					return err
				}
				return printJSON(profiles)
			}),
		}, {
			Name:        "ask",
			Description: "ask the travel assistant a question about a destination",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "destination", Required: true},
				&cli.StringFlag{Name: "question", Required: true},
			},
			Action: withContainer(func(c *container.Container, ctx *cli.Context) error {
				answer, err := c.AssistantService.Ask(ctx.Context, ctx.String("destination"), ctx.String("question"))
				if err != nil {
					return err
				}
				_, err = fmt.Println(answer)
				return err
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withContainer(f func(*container.Container, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := config.InitConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// stdout carries the command output
		logger := appLogger.NewWithWriter(os.Getenv("APP_ENV"), os.Stderr)

		c, err := container.NewContainer(ctx.Context, &cfg, logger)
		if err != nil {
			return fmt.Errorf("building container: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.Close(closeCtx); err != nil {
				logger.Warn("closing container", "error", err)
			}
		}()
		return f(c, ctx)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to JSON: %w", err)
	}
	if _, err := fmt.Printf("%s\n", data); err != nil {
		return fmt.Errorf("writing JSON to stdout: %w", err)
	}
	return nil
}
