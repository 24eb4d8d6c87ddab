package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/go-demoforecast/internal/app"
	"github.com/aouyang1/go-demoforecast/internal/config"
	"github.com/aouyang1/go-demoforecast/internal/log"
	"github.com/pkg/profile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "run":
		code = run(os.Args[2:])
	case "load":
		code = load(os.Args[2:])
	default:
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: demoforecast <run|load> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  run     forecast expenditure, segment regions and write the outputs")
	fmt.Fprintln(os.Stderr, "  load    copy the cleaned csv tables into a database")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -config      path to config.yaml (default: search ./configs and .)")
	fmt.Fprintln(os.Stderr, "  -debug       enable debug logging")
	fmt.Fprintln(os.Stderr, "  -cpuprofile  write a cpu profile to the given dir (run only)")
	fmt.Fprintln(os.Stderr, "  -target      database to load into, postgres or sqlite (load only, default: input.source)")
}

func setup(configPath string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.Init(debug || cfg.Log.Debug); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run returns the process exit code so deferred flushes complete before main exits
func run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml")
	debug := fs.Bool("debug", false, "enable debug logging")
	cpuProfile := fs.String("cpuprofile", "", "write a cpu profile to this dir")
	fs.Parse(args)

	cfg, err := setup(*configPath, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	if *cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProfile), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := app.New(cfg, log.GetZapLogger(), os.Stdout).Run(ctx); err != nil {
		log.Errorf("run failed: %v", err)
		return 1
	}
	log.Info("run complete")
	return 0
}

func load(args []string) int {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml")
	debug := fs.Bool("debug", false, "enable debug logging")
	target := fs.String("target", "", "database to load into, postgres or sqlite")
	fs.Parse(args)

	cfg, err := setup(*configPath, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	if *target == "" {
		*target = cfg.Input.Source
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, log.GetZapLogger(), os.Stdout).Load(ctx, *target); err != nil {
		log.Errorf("load failed: %v", err)
		return 1
	}
	log.Infof("loaded %s from %s", *target, cfg.Input.Dir)
	return 0
}
