// main.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// tellopoll flies a Tello with the polled engine, forwarding video and telemetry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SMerrony/tello/v2"
	"github.com/SMerrony/tello/v2/cmd/tellopoll/app"
	"github.com/urfave/cli"
)

var commands = []cli.Command{
	{
		Name:  "fly",
		Usage: "Connect to the drone and relay its video and telemetry until interrupted",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "config, c",
				Usage: "Path to the configuration file (defaults are used if omitted)",
			},
			cli.BoolFlag{
				Name:  "takeoff",
				Usage: "Take off once the drone reports its status, land on exit",
			},
		},
		Action: flyCommand,
	},
	{
		Name:      "decode",
		Usage:     "Describe hex encoded datagrams received from the drone",
		ArgsUsage: "<hex> [<hex>...]",
		Action:    decodeCommand,
	},
}

func flyCommand(c *cli.Context) error {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	config, err := app.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", c.String("config")))
		return cli.NewExitError("", 1)
	}
	logLevel.Set(config.Settings.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Fly(ctx, config, app.Options{TakeOff: c.Bool("takeoff")}, logger); err != nil {
		logger.Error(err.Error())
		return cli.NewExitError("", 1)
	}
	return nil
}

func decodeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowCommandHelp(c, "decode")
	}
	return app.Decode(os.Stdout, c.Args())
}

func main() {
	a := cli.NewApp()
	a.Name = "tellopoll"
	a.Usage = "Tello client using the polled engine"
	a.Version = tello.TelloPackageVersion
	a.Commands = commands

	if err := a.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
