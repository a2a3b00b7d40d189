package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/kayac/fcmrelay"
	"github.com/kayac/fcmrelay/config"
	"github.com/sirupsen/logrus"
)

var version string

func main() {
	var (
		confPath    string
		envFile     string
		logFormat   string
		port        int
		showVersion bool
		logLevel    string
	)

	flag.StringVar(&confPath, "config", "", "specify config file. Configured by environment variables when empty.")
	flag.StringVar(&confPath, "c", "", "specify config file. Configured by environment variables when empty.")
	flag.StringVar(&envFile, "env-file", ".env", "load environment variables from the file if it exists.")
	flag.IntVar(&port, "port", 0, "relay port number (overrides PORT).")
	flag.StringVar(&logFormat, "log-format", "", "specifies the log format: ltsv or json.")
	flag.BoolVar(&showVersion, "v", false, "show version number.")
	flag.BoolVar(&showVersion, "version", false, "show version number.")
	flag.StringVar(&logLevel, "log-level", "info", "set the log level (debug, warn, info)")
	flag.Parse()

	if version == "" {
		version = fcmrelay.Version
	}
	if showVersion {
		fmt.Printf("Compiler: %s %s\n", runtime.Compiler, runtime.Version())
		fmt.Printf("fcmrelay version: %s\n", version)
		return
	}

	initLogrus(logFormat, logLevel)

	if err := godotenv.Load(envFile); err != nil {
		logrus.Debugf("No %s file found, using environment variables", envFile)
	}

	var (
		c   config.Config
		err error
	)
	if confPath != "" {
		c, err = config.LoadConfig(confPath)
	} else {
		c, err = config.DefaultLoadConfig()
	}
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}

	if port != 0 {
		c.Provider.Port = port
	}

	fcmrelay.StartServer(c)
}

func initLogrus(format string, logLevel string) {
	switch format {
	case "ltsv":
		logrus.SetFormatter(&fcmrelay.LtsvFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	logrus.SetLevel(lvl)
}
