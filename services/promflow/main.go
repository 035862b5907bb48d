package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/iulianpascalau/prom-flow/commonGo"
	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/config"
	"github.com/iulianpascalau/prom-flow/services/promflow/factory"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "promflow"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	envFile              = "./.env"
	envServiceKey        = "SERVICE_KEY"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	promflowHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
COMMANDS:
   {{range .Commands}}{{join .Names ", "}}{{ "\t" }}{{.Usage}}
   {{end}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("main")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,trigger:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the trigger package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the service will store databases, results and logs.",
		Value: "",
	}
	// configFile defines the path to the TOML configuration file
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` of the TOML configuration file.",
		Value: "./config.toml",
	}

	queryFlag = cli.StringFlag{
		Name:  "query",
		Usage: "The PromQL `expression` to evaluate.",
	}
	timeFlag = cli.StringFlag{
		Name:  "time",
		Usage: "The evaluation `time`: now, a relative time like -10m or any value the server accepts (RFC3339, Unix timestamp).",
	}
	fetchTypeFlag = cli.StringFlag{
		Name:  "fetch-type",
		Usage: "How much of the result is returned: FETCH, FETCH_ONE, STORE or NONE.",
		Value: string(common.FetchNone),
	}

	envFileContents = map[string]string{
		envServiceKey: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = promflowHelpTemplate
	app.Name = "Prometheus query, push and polling trigger service"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for querying Prometheus, pushing to a Pushgateway and running polling triggers"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "starts the polling triggers and the HTTP API",
			Action: run,
		},
		{
			Name:  "query",
			Usage: "runs a single instant query and prints the result",
			Flags: []cli.Flag{
				queryFlag,
				timeFlag,
				fetchTypeFlag,
			},
			Action: runQuery,
		},
		{
			Name:   "push",
			Usage:  "pushes the metrics defined in the [Pushgateway] section",
			Action: runPush,
		},
	}

	app.Action = run

	defer func() {
		if fileLogging != nil {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func prepare(ctx *cli.Context) (config.Config, error) {
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return config.Config{}, err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, commonGo.ArgsFileLogger{
		DefaultLogsPath:  defaultLogsPath,
		LogFilePrefix:    logFilePrefix,
		WorkingDir:       workingDir,
		SaveLogFile:      ctx.GlobalBool(logSaveFile.Name),
		LifeSpan:         time.Second * time.Duration(logFileLifeSpanInSec),
		LifeSpanSizeInMB: logFileLifeSpanInMB,
	})
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := loadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return config.Config{}, err
	}

	if len(workingDir) > 0 {
		cfg.StorageDirectory = inWorkingDir(workingDir, cfg.StorageDirectory)
		cfg.EventsDatabasePath = inWorkingDir(workingDir, cfg.EventsDatabasePath)
	}

	return cfg, nil
}

func run(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}

	log.Info("Starting promflow service", "version", appVersion, "pid", os.Getpid(), "name", cfg.Name)

	err = commonGo.ReadEnvFile(envFile, envFileContents)
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(envFileContents[envServiceKey], cfg)
	if err != nil {
		return err
	}

	err = components.Start()
	if err != nil {
		components.Close()
		return err
	}

	log.Info("promflow service started",
		"address", components.GetServer().Address(),
		"triggers", components.GetEngine().NumTriggers())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")

	components.Close()

	return nil
}

func runQuery(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}

	taskRunner, err := factory.NewTaskRunner(cfg)
	if err != nil {
		return err
	}

	output, err := taskRunner.RunQuery(context.Background(), common.QueryRequest{
		Query:     ctx.String(queryFlag.Name),
		Time:      ctx.String(timeFlag.Name),
		FetchType: ctx.String(fetchTypeFlag.Name),
	})
	if err != nil {
		return err
	}

	return printJSON(output)
}

func runPush(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}

	taskRunner, err := factory.NewTaskRunner(cfg)
	if err != nil {
		return err
	}

	output, err := taskRunner.RunPush(context.Background(), common.PushRequest{
		Job:      cfg.Pushgateway.Job,
		Instance: cfg.Pushgateway.Instance,
		Metrics:  cfg.Pushgateway.Metrics,
	})
	if err != nil {
		return err
	}

	return printJSON(output)
}

func printJSON(value interface{}) error {
	buff, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(buff))
	return nil
}

func inWorkingDir(workingDir string, path string) string {
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workingDir, path)
}

func loadConfig(configPath string) (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}

	return *cfg, nil
}
