package commonGo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

// ArgsFileLogger holds the arguments used when attaching a file logger
type ArgsFileLogger struct {
	DefaultLogsPath  string
	LogFilePrefix    string
	WorkingDir       string
	SaveLogFile      bool
	LifeSpan         time.Duration
	LifeSpanSizeInMB uint64
}

// AttachFileLogger attaches, if required, a log file. A nil handler is returned when file logging is disabled.
func AttachFileLogger(log logger.Logger, args ArgsFileLogger) (FileLoggingHandler, error) {
	err := logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	if !args.SaveLogFile {
		return nil, nil
	}

	argsFileLogging := file.ArgsFileLogging{
		WorkingDir:      args.WorkingDir,
		DefaultLogsPath: args.DefaultLogsPath,
		LogFilePrefix:   args.LogFilePrefix,
	}
	logFile, err := file.NewFileLogging(argsFileLogging)
	if err != nil {
		return nil, fmt.Errorf("%w creating a log file", err)
	}

	if args.LifeSpan > 0 {
		err = logFile.ChangeFileLifeSpan(args.LifeSpan, args.LifeSpanSizeInMB)
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
	}

	return logFile, nil
}

// ReadEnvFile will read the file contents in the provided map. Every key of the map is mandatory.
func ReadEnvFile(envFile string, m map[string]string) error {
	err := godotenv.Load(envFile)
	if err != nil {
		return err
	}

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			return fmt.Errorf("%s is not set in the .env file", k)
		}

		m[k] = val
	}

	return nil
}

// CronJobStarter is able to start a go routine that periodically calls the provided handler. The handler is called
// right away and then again timeToCall after each call returned, so two calls never overlap.
func CronJobStarter(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration) {
	go func() {
		handler(ctx)

		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				handler(ctx)
				timer.Reset(timeToCall)
			case <-ctx.Done():
				return
			}
		}
	}()
}
