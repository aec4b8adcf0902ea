package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ericfisherdev/keyvault/internal/cli"
)

var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.Execute(ctx, os.Args[1:], &cli.App{}, cli.Options(version)...)
	if err == nil {
		return cli.ExitOK
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var cliErr *cli.Error
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return cli.ExitGeneral
}
