// cmd/chromepuppet/main.go - browser automation CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/osdlabs/chromepuppet/internal/browser"
	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/errors"
	"github.com/osdlabs/chromepuppet/internal/monitoring"
	"github.com/osdlabs/chromepuppet/internal/output"
	"github.com/osdlabs/chromepuppet/internal/portal"
	"github.com/osdlabs/chromepuppet/internal/utils"
	"github.com/osdlabs/chromepuppet/internal/zoom"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var errorService = errors.NewService()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "balance":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: chromepuppet balance <config.yaml>\n")
			os.Exit(1)
		}
		exitOnError(runBalance(os.Args[2]))

	case "dnc":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: chromepuppet dnc <config.yaml> [--numbers <file>]\n")
			os.Exit(1)
		}
		exitOnError(runDNC(os.Args[2], flagValue("--numbers")))

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: chromepuppet validate <config.yaml>\n")
			os.Exit(1)
		}
		exitOnError(validateConfig(os.Args[2]))

	case "template":
		template, err := generateTemplate(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(template)

	case "profiles":
		exitOnError(listProfiles())

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errorService.GetExitCode(err))
	}
}

// runBalance runs the dialer list balancer until interrupted.
func runBalance(configFile string) error {
	cfg, logger, err := loadJob(configFile)
	if err != nil {
		return err
	}
	if cfg.Telesero == nil {
		return fmt.Errorf("config %s has no telesero section", configFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := output.NewWriter(&cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output writer: %w", err)
	}
	changeLog := output.NewChangeLog(writer)
	defer changeLog.Close()

	metrics := monitoring.NewMetrics(monitoring.MetricsConfig{})

	chrome, err := browser.New(browser.FromConfig(&cfg.Browser))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer chrome.Close()

	client := portal.NewClient(chrome, cfg.Telesero, logger)
	balancer, err := portal.NewBalancer(cfg.Telesero, client, metrics, changeLog, logger)
	if err != nil {
		return err
	}

	watcher, err := config.NewWatcher(configFile, logger)
	if err != nil {
		logger.Warnf("config watcher disabled: %v", err)
	} else {
		defer watcher.Close()
		watcher.OnChange(func(updated *config.Config) {
			if updated.Telesero == nil || updated.Telesero.Thresholds == nil {
				return
			}
			balancer.UpdateThresholds(*updated.Telesero.Thresholds)
		})
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var statusServer *monitoring.Server
	if cfg.Monitoring != nil && cfg.Monitoring.Enabled {
		statusServer = monitoring.NewServer(cfg.Monitoring.Address, cfg.Name, version, logger)
		statusServer.SetDetail("server", cfg.Telesero.Server)
		group.Go(statusServer.Start)
	}

	group.Go(func() error {
		defer func() {
			if statusServer != nil {
				statusServer.Shutdown(context.Background())
			}
		}()
		return balancer.Run(groupCtx)
	})

	err = group.Wait()
	if err == context.Canceled {
		logger.Info("balancer stopped")
		return nil
	}
	return err
}

// runDNC processes a batch of numbers through the configured Zoom block
// list flow.
func runDNC(configFile, numbersFile string) error {
	cfg, logger, err := loadJob(configFile)
	if err != nil {
		return err
	}
	if cfg.Zoom == nil {
		return fmt.Errorf("config %s has no zoom section", configFile)
	}

	if numbersFile == "" {
		numbersFile = cfg.Zoom.NumbersFile
	}
	if numbersFile == "" {
		return fmt.Errorf("no numbers file: set zoom.numbers_file or pass --numbers")
	}

	numbers, rejected, err := zoom.LoadNumbers(numbersFile)
	if err != nil {
		return err
	}
	for _, entry := range rejected {
		logger.Warnf("skipping malformed number %q", entry)
	}
	if len(numbers) == 0 {
		return fmt.Errorf("no valid numbers in %s", numbersFile)
	}
	logger.Infof("loaded %d numbers (%d rejected)", len(numbers), len(rejected))

	creds, err := config.ZoomCredentials()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := output.NewWriter(&cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output writer: %w", err)
	}
	dncLog := output.NewDNCLog(writer)
	defer dncLog.Close()

	metrics := monitoring.NewMetrics(monitoring.MetricsConfig{})

	pool, err := browser.NewChromePool(browser.FromConfig(&cfg.Browser), cfg.Zoom.Workers)
	if err != nil {
		return fmt.Errorf("failed to create browser pool: %w", err)
	}
	defer pool.Close()

	batch := zoom.NewBatch(pool, cfg.Zoom, creds, dncLog, metrics, logger)
	summary, err := batch.Run(ctx, numbers)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d numbers: %d added, %d duplicates, %d failed\n",
		summary.Processed, summary.Added, summary.Duplicates, summary.Failed)
	if summary.Failed == summary.Processed {
		return fmt.Errorf("%w: every number in the batch failed", errors.ErrDNC)
	}
	return nil
}

func validateConfig(configFile string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Printf("✓ Configuration file %q is valid\n", configFile)
	return nil
}

func generateTemplate(args []string) (string, error) {
	templateType := "balancer"
	if len(args) > 1 && args[0] == "--type" {
		templateType = args[1]
	}

	template := config.GenerateTemplate(templateType)
	yamlData, err := yaml.Marshal(template)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template to YAML: %w", err)
	}
	return string(yamlData), nil
}

func listProfiles() error {
	manager := browser.NewProfileManager("")
	profiles, err := manager.Profiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No Chrome profiles found")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p.IsDefault {
			marker = "*"
		}
		name := p.DisplayName
		if name == "" {
			name = p.Name
		}
		fmt.Printf("%s %-24s %s\n", marker, name, p.Path)
	}
	return nil
}

// loadJob loads and validates the job config, .env credentials, and
// builds the job logger.
func loadJob(configFile string) (*config.Config, utils.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	level := utils.ParseLogLevel(cfg.LogLevel)
	var logger utils.Logger
	if cfg.LogDir != "" {
		logger, err = utils.NewFileLogger(level, cfg.LogDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		logger = utils.NewLoggerWithLevel(level)
	}

	return cfg, logger, nil
}

// flagValue returns the value following the named flag, or "".
func flagValue(name string) string {
	for i, arg := range os.Args {
		if arg == name && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return ""
}

func printUsage() {
	fmt.Println("chromepuppet - call-center browser automation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chromepuppet balance <config.yaml>                Run the dialer list balancer")
	fmt.Println("  chromepuppet dnc <config.yaml> [--numbers <file>] Run the Zoom DNC batch")
	fmt.Println("  chromepuppet validate <config.yaml>               Validate a configuration file")
	fmt.Println("  chromepuppet template [--type <type>]             Generate a configuration template")
	fmt.Println("  chromepuppet profiles                             List local Chrome profiles")
	fmt.Println("  chromepuppet version                              Show version information")
	fmt.Println("  chromepuppet help                                 Show this help message")
	fmt.Println()
	fmt.Println("Template types:")
	fmt.Println("  balancer    Telesero list balancer job (default)")
	fmt.Println("  dnc         Zoom DNC batch job")
	fmt.Println()
	fmt.Println("Credentials come from the environment (or a .env file):")
	fmt.Println("  TELESERO_USERNAME, TELESERO_PASSWORD")
	fmt.Println("  ZOOM_EMAIL, ZOOM_PASSWORD")
}

func printVersion() {
	fmt.Printf("chromepuppet %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
