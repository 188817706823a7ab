package logging

import "github.com/urfave/cli/v2"

var (
	LogJsonFlag = cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format console logs with JSON",
	}
	LogVerbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Set the log level for console logs",
		Value: "info",
	}
	LogDirPathFlag = cli.StringFlag{
		Name:  "log.dir.path",
		Usage: "Path to store user and error logs to disk",
	}
	LogDirVerbosityFlag = cli.StringFlag{
		Name:  "log.dir.verbosity",
		Usage: "Set the log verbosity for logs stored to disk",
		Value: "info",
	}
)

// Flags are all the logging flags a command should register.
var Flags = []cli.Flag{
	&LogJsonFlag,
	&LogVerbosityFlag,
	&LogDirPathFlag,
	&LogDirVerbosityFlag,
}
