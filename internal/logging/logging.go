package logging

import (
	"os"
	"path"
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLoggerCtx configures the root logger from CLI flags: console output on
// stderr always, plus rotating file output when a log dir is set. It returns
// the root logger for convenience.
func SetupLoggerCtx(filePrefix string, ctx *cli.Context) log.Logger {
	consoleJson := ctx.Bool(LogJsonFlag.Name)

	consoleLevel, err := tryGetLogLevel(ctx.String(LogVerbosityFlag.Name))
	if err != nil {
		consoleLevel = log.LvlInfo
	}
	dirLevel, err := tryGetLogLevel(ctx.String(LogDirVerbosityFlag.Name))
	if err != nil {
		dirLevel = log.LvlInfo
	}

	logger := log.Root()
	if consoleJson {
		logger.SetHandler(log.LvlFilterHandler(consoleLevel, log.StreamHandler(os.Stderr, log.JsonFormat())))
	} else {
		logger.SetHandler(log.LvlFilterHandler(consoleLevel, log.StderrHandler))
	}

	dirPath := ctx.String(LogDirPathFlag.Name)
	if len(dirPath) == 0 {
		return logger
	}
	if err := os.MkdirAll(dirPath, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "dir", dirPath, "err", err)
		return logger
	}

	userLog := log.StreamHandler(&lumberjack.Logger{
		Filename:   path.Join(dirPath, filePrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}, log.TerminalFormatNoColor())

	logger.SetHandler(log.MultiHandler(logger.GetHandler(), log.LvlFilterHandler(dirLevel, userLog)))
	logger.Info("logging to file system", "log dir", dirPath, "file prefix", filePrefix, "log level", dirLevel)
	return logger
}

func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		l, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return log.Lvl(l), nil
	}
	return lvl, nil
}
