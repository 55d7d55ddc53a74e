package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "darwin"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	mutationPathFlagName  = "mutation-path"
	excludeFlagName       = "exclude"
	verboseFlagName       = "verbose"
	logFileFlagName       = "log-file"
	parallelFlagName      = "parallel"
	testTimeoutFlagName   = "test-timeout"
	buildTimeoutFlagName  = "build-timeout"
	keepFlagName          = "keep"
	failOnMissingFlagName = "fail-on-missing"
	dryRunFlagName        = "dry-run"
	diffFlagName          = "diff"
	buildCommandFlagName  = "build-command"
	testCommandFlagName   = "test-command"
	envFlagName           = "env"
	extensionFlagName     = "ext"
	markerFlagName        = "marker"

	mutationPathConfigKey  = "mutation_path"
	parallelConfigKey      = "run.parallel"
	testTimeoutConfigKey   = "run.test_timeout"
	buildTimeoutConfigKey  = "run.build_timeout"
	keepConfigKey          = "run.keep"
	failOnMissingConfigKey = "run.fail_on_missing"
	buildCommandConfigKey  = "commands.build"
	testCommandConfigKey   = "commands.test"
	envConfigKey           = "commands.env"
	extensionsConfigKey    = "analysis.extensions"
	markersConfigKey       = "analysis.markers"
	excludeConfigKey       = "paths.exclude"

	defaultTestTimeout   = "60s"
	defaultBuildTimeout  = "0s"
	defaultParallel      = 0
	defaultKeep          = false
	defaultFailOnMissing = false

	envPrefix = "DARWIN"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".darwin.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var (
	defaultBuildCommand = []string{"cargo", "build"}
	defaultTestCommand  = []string{"cargo", "test"}
	defaultEnv          = []string{"RUSTFLAGS=-Awarnings", "RUST_BACKTRACE=0"}
	defaultExtensions   = []string{".rs"}
	defaultMarkers      = []string{"test", "tokio::test"}
	defaultExclude      = []string{".git", "target"}
)

var globalLogger *slog.Logger

func defaultMutationPath() string {
	return filepath.Join(os.TempDir(), configBaseName)
}

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(mutationPathConfigKey, defaultMutationPath())
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(testTimeoutConfigKey, defaultTestTimeout)
	viper.SetDefault(buildTimeoutConfigKey, defaultBuildTimeout)
	viper.SetDefault(keepConfigKey, defaultKeep)
	viper.SetDefault(failOnMissingConfigKey, defaultFailOnMissing)
	viper.SetDefault(buildCommandConfigKey, defaultBuildCommand)
	viper.SetDefault(testCommandConfigKey, defaultTestCommand)
	viper.SetDefault(envConfigKey, defaultEnv)
	viper.SetDefault(extensionsConfigKey, defaultExtensions)
	viper.SetDefault(markersConfigKey, defaultMarkers)
	viper.SetDefault(excludeConfigKey, defaultExclude)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}

		slog.Warn("Failed to read config file", "file", configFileName, "error", err)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
