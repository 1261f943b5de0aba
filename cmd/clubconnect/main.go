package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goserg/clubconnect/internal/app"
	"github.com/goserg/clubconnect/internal/cli"
	"github.com/goserg/clubconnect/internal/config"
	"github.com/goserg/clubconnect/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to the toml config")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: clubconnect [-config file] <command> [args], run clubconnect help for commands")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	l := logger.New(cfg.Client.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, l, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(ctx); err != nil {
		return err
	}

	out, err := cli.NewCommands(a, cfg.Client.AdminPassword).RunCommand(ctx, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
