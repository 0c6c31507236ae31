/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command modelkv reads and writes raw records through any modelstore engine.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/storagemodels"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "modelkv",
		Usage:   "Inspect and edit records stored by modelstore",
		Version: modelstore.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment files to load before reading the configuration",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "Engine to use (memory, badger, bolt, redis, dynamodb); overrides the configuration",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Register Prometheus collectors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Look up a key or key expression",
				ArgsUsage: "<key>",
				Action:    getCommand,
				Flags:     queryFlags(),
			},
			{
				Name:      "set",
				Usage:     "Store a JSON object under a key",
				ArgsUsage: "<key> <json>",
				Action:    setCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "label",
						Usage: "Label entry as name=namespace:sortKey, repeatable",
					},
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove the record at a key",
				ArgsUsage: "<key>",
				Action:    removeCommand,
			},
			{
				Name:   "engines",
				Usage:  "List the available engines",
				Action: enginesCommand,
			},
			{
				Name:   "version",
				Usage:  "Show version information",
				Action: versionCommand,
			},
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "label",
			Usage: "Secondary access path (label1 to label5)",
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "Exclusive sort key cursor",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of items",
		},
		&cli.BoolFlag{
			Name:  "reverse",
			Usage: "Scan in descending key order",
		},
	}
}

// loadConfig builds the configuration from the env files, the config file and the global
// flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = strings.ToLower(c.String("log-level"))
	}
	if c.Bool("metrics") {
		cfg.Metrics = true
	}
	return cfg, cfg.Validate()
}

func openClient(c *cli.Context) (*modelstore.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	client, err := modelstore.Open(c.Context, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s engine: %w", cfg.Engine, err)
	}
	return client, nil
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s expects %d argument(s), got %d", c.Command.Name, n, c.NArg())
	}
	return nil
}

func getCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	opts := storagemodels.GetOptions{
		Label:   storagemodels.Label(c.String("label")),
		Start:   c.String("start"),
		Limit:   c.Int("limit"),
		Reverse: c.Bool("reverse"),
	}
	if opts.Label != "" && !opts.Label.Valid() {
		return fmt.Errorf("unknown label %q", opts.Label)
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Engine().Get(c.Context, c.Args().First(), opts)
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func setCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	var value storagemodels.Record
	if err := json.Unmarshal([]byte(c.Args().Get(1)), &value); err != nil {
		return fmt.Errorf("value must be a JSON object: %w", err)
	}
	labels, err := parseLabels(c.StringSlice("label"))
	if err != nil {
		return err
	}

	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Engine().Set(c.Context, c.Args().First(), value, labels)
}

func removeCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Engine().Remove(c.Context, c.Args().First())
}

func enginesCommand(c *cli.Context) error {
	for _, name := range modelstore.Engines() {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func versionCommand(c *cli.Context) error {
	info := modelstore.GetVersionInfo()
	fmt.Fprintln(c.App.Writer, info)
	fmt.Fprintf(c.App.Writer, "engines: %s\n", strings.Join(info.Engines, ", "))
	return nil
}

// parseLabels reads name=key entries.
func parseLabels(entries []string) (storagemodels.LabelSet, error) {
	labels := make(storagemodels.LabelSet, len(entries))
	for _, entry := range entries {
		name, key, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid label %q: expected name=namespace:sortKey", entry)
		}
		label := storagemodels.Label(name)
		if !label.Valid() {
			return nil, fmt.Errorf("unknown label %q", name)
		}
		if _, dup := labels[label]; dup {
			return nil, fmt.Errorf("label %q given twice", name)
		}
		labels[label] = key
	}
	return labels, nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
