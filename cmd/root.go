package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"proxytune/internal/banner"
	"proxytune/internal/cli"
	"proxytune/internal/env"
	"proxytune/internal/loadtest"
	"proxytune/internal/nginx"
	"proxytune/internal/report"
	"proxytune/internal/search"
	"proxytune/internal/stats"
	"proxytune/internal/storage"
)

var (
	cfgFile string

	// CLI Flags
	iterations int
	gridSize   int
	testUsers  int
	spawnRate  int
	duration   int
	fullReset  bool
	output     string
	baseDir    string
)

var rootCmd = &cobra.Command{
	Use:   "proxytune",
	Short: "ProxyTune - automated nginx configuration search",
	Long: `
ProxyTune grid-searches nginx proxy parameters (worker_connections,
keepalive_timeout, upstream keepalive) against a docker compose
deployment, measuring each candidate with an external locust run and
reporting the best configuration found.`,
	Run: func(cmd *cobra.Command, args []string) {
		runOptimize()
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.proxytune.yaml)")

	rootCmd.Flags().IntVarP(&iterations, "iterations", "n", 9, "Number of candidate iterations")
	rootCmd.Flags().IntVar(&gridSize, "grid-size", 3, "Samples per parameter axis")
	rootCmd.Flags().IntVarP(&testUsers, "test-users", "u", 100, "Concurrent users per load test")
	rootCmd.Flags().IntVar(&spawnRate, "test-spawn-rate", 4, "User spawn rate per second")
	rootCmd.Flags().IntVarP(&duration, "test-duration", "d", 60, "Load test duration in seconds")
	rootCmd.Flags().BoolVar(&fullReset, "full-reset", false, "Wipe volumes before the baseline reset")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Report output path (default: timestamped file)")
	rootCmd.Flags().StringVar(&baseDir, "base-dir", ".", "Deployment directory (docker-compose.yml, nginx/, load_testing/)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".proxytune")
		}
	}
	viper.SetEnvPrefix("proxytune")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// envConfig builds the controller config, letting the config file or
// environment override the stock docker compose credentials.
func envConfig(baseDir string) env.Config {
	cfg := env.DefaultConfig(baseDir)
	if v := viper.GetString("db.host"); v != "" {
		cfg.DBHost = v
	}
	if v := viper.GetInt("db.port"); v != 0 {
		cfg.DBPort = v
	}
	if v := viper.GetString("db.name"); v != "" {
		cfg.DBName = v
	}
	if v := viper.GetString("db.user"); v != "" {
		cfg.DBUser = v
	}
	if v := viper.GetString("db.password"); v != "" {
		cfg.DBPassword = v
	}
	return cfg
}

func runOptimize() {
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadDir := filepath.Join(baseDir, "load_testing")
	optDir := filepath.Join(baseDir, "config_optimization")

	fmt.Println(banner.GetString())
	cli.PrintRunHeader(iterations, testUsers, duration)

	driver := &search.Driver{
		Opts: search.Options{
			Iterations: iterations,
			GridSize:   gridSize,
			Users:      testUsers,
			SpawnRate:  spawnRate,
			Duration:   duration,
			FullReset:  fullReset,
			Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		},
		NginxConf: filepath.Join(baseDir, "nginx", "nginx.conf"),
		Apply:     nginx.Apply,
		Env:       env.NewController(envConfig(baseDir), log),
		Load: &loadtest.Runner{
			Script:     filepath.Join(loadDir, "run_test_with_balancer.sh"),
			WorkDir:    loadDir,
			ResultsDir: filepath.Join(loadDir, "results", "with_balancer"),
			Log:        log,
		},
		Sink:     storage.FileSink{Dir: optDir},
		Progress: &cli.Console{},
		Log:      log,
	}

	res, err := driver.Run(ctx)
	if errors.Is(err, search.ErrResetFailed) {
		log.Error("could not bring the environment up, aborting")
		os.Exit(1)
	}
	if err != nil {
		log.WithError(err).Error("search failed")
		os.Exit(1)
	}

	if res.Interrupted {
		cli.PrintInterrupted(filepath.Join(optDir, storage.PartialHistoryFile))
		return
	}

	gen := &report.Generator{Dir: filepath.Join(optDir, "reports"), Log: log}
	reportPath, err := gen.Generate(res.History, output)
	if err != nil {
		log.WithError(err).Error("could not generate report")
	}

	cli.PrintSummary(res, stats.Summarize(res.History, log), reportPath)
	archiveRun(log, res, reportPath)
}

// archiveRun records the run summary in the local bolt archive. Purely
// additive bookkeeping, so failures only warn.
func archiveRun(log *logrus.Logger, res *search.Result, reportPath string) {
	path, err := runStorePath()
	if err != nil {
		log.WithError(err).Warn("could not locate run archive")
		return
	}

	store, err := storage.OpenRunStore(path)
	if err != nil {
		log.WithError(err).Warn("could not open run archive")
		return
	}
	defer store.Close()

	_, err = store.Archive(storage.RunRecord{
		Iterations:     len(res.History),
		InitialRPS:     res.InitialRPS,
		BestRPS:        res.Best.Metrics.RPS,
		ImprovementPct: res.ImprovementPct,
		BestConfig:     res.Best.Config,
		ReportPath:     reportPath,
	})
	if err != nil {
		log.WithError(err).Warn("could not archive run")
	}
}

func runStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".proxytune", "runs.db"), nil
}
