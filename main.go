package main

import (
	"context"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"veilfs/commands"
	"veilfs/config"
)

func setLogLevel(level string) {
	l, err := log.ParseLevel(level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(l)
}

func registerGlobalFlags(fset *flag.FlagSet) {
	flag.VisitAll(func(f *flag.Flag) {
		fset.Var(f.Value, f.Name, f.Usage)
	})
}

func checkConfig(cfg string) {
	if cfg == "" {
		log.Fatal("Config file not specified")
	}
}

func loadConfig(configFile string) *config.Config {
	cfg, err := config.NewConfigFromFile(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// main is the entry point of the application.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configFile := flag.String("config", "", "Path to config file")
	logLevel := flag.String("loglevel", "debug", "Log level")

	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	registerGlobalFlags(initCmd)

	infoCmd := flag.NewFlagSet("info", flag.ExitOnError)
	registerGlobalFlags(infoCmd)

	putCmd := flag.NewFlagSet("put", flag.ExitOnError)
	putFile := putCmd.String("file", "", "Path of the file to store")
	registerGlobalFlags(putCmd)

	catCmd := flag.NewFlagSet("cat", flag.ExitOnError)
	catHash := catCmd.String("hash", "", "Hash of the blob to print")
	registerGlobalFlags(catCmd)

	lsCmd := flag.NewFlagSet("ls", flag.ExitOnError)
	lsRoot := lsCmd.String("root", "", "Composite root identifier (<commit>:<profile>)")
	registerGlobalFlags(lsCmd)

	compactCmd := flag.NewFlagSet("compact", flag.ExitOnError)
	registerGlobalFlags(compactCmd)

	gcCmd := flag.NewFlagSet("gc", flag.ExitOnError)
	registerGlobalFlags(gcCmd)

	scrubCmd := flag.NewFlagSet("scrub", flag.ExitOnError)
	registerGlobalFlags(scrubCmd)

	maintainCmd := flag.NewFlagSet("maintain", flag.ExitOnError)
	registerGlobalFlags(maintainCmd)

	if len(os.Args) < 2 {
		log.WithField("args", os.Args).Fatal("Expected a subcommand")
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "init":
		initCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		cfg := config.NewEmptyConfig(*configFile)
		commands.RunInit(ctx, cfg)
	case "info":
		infoCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		commands.RunInfo(ctx, loadConfig(*configFile))
	case "put":
		putCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		if *putFile == "" {
			log.Fatal("No file specified")
		}
		commands.RunPut(ctx, loadConfig(*configFile), *putFile)
	case "cat":
		catCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		if *catHash == "" {
			log.Fatal("No hash specified")
		}
		commands.RunCat(ctx, loadConfig(*configFile), *catHash)
	case "ls":
		lsCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		if *lsRoot == "" {
			log.Fatal("No root specified")
		}
		commands.RunLs(ctx, loadConfig(*configFile), *lsRoot)
	case "compact":
		compactCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		commands.RunCompact(ctx, loadConfig(*configFile))
	case "gc":
		gcCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		commands.RunGC(ctx, loadConfig(*configFile))
	case "scrub":
		scrubCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		commands.RunScrub(ctx, loadConfig(*configFile))
	case "maintain":
		maintainCmd.Parse(args)
		checkConfig(*configFile)
		setLogLevel(*logLevel)
		commands.RunMaintain(ctx, loadConfig(*configFile))
	default:
		log.Fatalf("Invalid subcommand '%s'", os.Args[1])
	}
}
