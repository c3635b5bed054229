package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/adapters/browser/playwright"
	"github.com/kverel/edge-search-cli/internal/adapters/fscopy"
	"github.com/kverel/edge-search-cli/internal/adapters/procs/gopsutil"
	reportadapter "github.com/kverel/edge-search-cli/internal/adapters/render/report"
	tomlrepo "github.com/kverel/edge-search-cli/internal/adapters/repo/toml"
	"github.com/kverel/edge-search-cli/internal/application"
	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/logging"
	"github.com/kverel/edge-search-cli/internal/ports"
)

type app struct {
	verbose bool

	config *viper.Viper
	logger *zap.Logger

	profileService *application.ProfileService
	runs           ports.RunRepository
	driver         *playwright.Driver
	inspector      *gopsutil.Inspector
	clock          ports.Clock
	rng            *rand.Rand
	now            func() time.Time

	reportRenderer   func(domain.RunReport, reportadapter.RenderOptions) (string, error)
	historyRenderer  func([]domain.RunReport, reportadapter.RenderOptions) (string, error)
	profilesRenderer func([]domain.ProfileDescriptor) (string, error)
	queriesRenderer  func(*domain.QueryPool) (string, error)
}

// wire builds the application graph. It runs from the root command's
// PersistentPreRunE so --verbose is parsed before the logger exists.
func (a *app) wire() error {
	if a.config != nil {
		return nil
	}

	configDir, err := resolveConfigDir()
	if err != nil {
		return err
	}

	config, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	logger, err := logging.New(filepath.Join(configDir, "logs", "es.log"), a.verbose)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	runs, err := tomlrepo.NewRepository(config)
	if err != nil {
		return fmt.Errorf("wire run repository: %w", err)
	}

	a.logger = logger
	a.profileService = application.NewProfileService(logger.With(zap.String("component", "profiles")))
	a.runs = runs
	a.driver = playwright.NewDriver(logger.With(zap.String("component", "browser")))
	a.inspector = gopsutil.NewInspector(logger.With(zap.String("component", "procs")))
	a.clock = ports.SystemClock{}
	a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	a.now = time.Now
	a.reportRenderer = reportadapter.Render
	a.historyRenderer = reportadapter.RenderHistory
	a.profilesRenderer = reportadapter.RenderProfiles
	a.queriesRenderer = reportadapter.RenderQueries
	a.config = config

	return nil
}

// close releases process-wide resources. Safe to call on an unwired app.
func (a *app) close() {
	if a.driver != nil {
		if err := a.driver.Shutdown(); err != nil && a.logger != nil {
			a.logger.Warn("shut down browser driver", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) newAcquireService(prompter ports.OperatorPrompter) *application.AcquireService {
	return application.NewAcquireService(
		fscopy.NewCopier(a.logger.With(zap.String("component", "copier"))),
		prompter,
		a.inspector,
		a.inspector,
		a.logger.With(zap.String("component", "acquire")),
		a.browserNames(),
	)
}

func (a *app) browserNames() []string {
	return a.config.GetStringSlice("browser.executables")
}

func (a *app) sessionConfig() application.SessionConfig {
	return application.SessionConfig{
		SearchURL:      a.config.GetString("search.url"),
		BoxSelector:    a.config.GetString("search.box_selector"),
		SignInSelector: a.config.GetString("search.sign_in_selector"),
		Launch: ports.LaunchOptions{
			Channel:  a.config.GetString("browser.channel"),
			Headless: a.config.GetBool("browser.headless"),
			Args:     a.config.GetStringSlice("browser.args"),
		},
		MaxAttempts:        a.config.GetInt("session.max_attempts"),
		NavRetries:         a.config.GetInt("session.nav_retries"),
		NavTimeout:         a.config.GetDuration("session.nav_timeout"),
		WaitVisibleTimeout: a.config.GetDuration("session.wait_visible_timeout"),
		NetworkIdleTimeout: a.config.GetDuration("session.network_idle_timeout"),
		SettleDelay:        a.config.GetDuration("session.settle_delay"),
		RestartBackoff:     a.config.GetDuration("session.restart_backoff"),
		VerifyLogin:        a.config.GetBool("session.verify_login"),
		LoginWait:          a.config.GetDuration("session.login_wait"),
		HumanizedTyping:    a.config.GetBool("typing.humanized"),
		MinKeyDelay:        a.config.GetDuration("typing.min_key_delay"),
		MaxKeyDelay:        a.config.GetDuration("typing.max_key_delay"),
		PreSubmitMin:       a.config.GetDuration("typing.pre_submit_min"),
		PreSubmitMax:       a.config.GetDuration("typing.pre_submit_max"),
		BetweenMin:         a.config.GetDuration("typing.between_min"),
		BetweenMax:         a.config.GetDuration("typing.between_max"),
	}
}

func resolveConfigDir() (string, error) {
	if dir := os.Getenv("ES_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, ".es"), nil
}

func loadConfig(configDir string) (*viper.Viper, error) {
	config := viper.New()
	config.SetConfigName("config")
	config.SetConfigType("toml")
	config.AddConfigPath(configDir)
	setConfigDefaults(config, configDir)

	// A missing config.toml means defaults; a broken one is an error.
	if err := config.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return config, nil
}

func setConfigDefaults(config *viper.Viper, configDir string) {
	config.SetDefault("queries.path", filepath.Join(configDir, "queries.txt"))
	config.SetDefault("runs.path", filepath.Join(configDir, "runs.toml"))

	config.SetDefault("browser.channel", "msedge")
	config.SetDefault("browser.headless", false)
	config.SetDefault("browser.executables", []string{"msedge", "msedge.exe"})
	config.SetDefault("browser.args", []string{
		"--no-first-run",
		"--no-sandbox",
		"--disable-sync",
		"--disable-hang-monitor",
		"--disable-popup-blocking",
		"--password-store=basic",
		"--disable-features=ImprovedCookieControls,LazyFrameLoading",
	})

	config.SetDefault("search.url", "https://www.bing.com")
	config.SetDefault("search.box_selector", "#sb_form_q")
	config.SetDefault("search.sign_in_selector", "#id_l")

	config.SetDefault("session.max_attempts", 3)
	config.SetDefault("session.nav_retries", 3)
	config.SetDefault("session.nav_timeout", "60s")
	config.SetDefault("session.wait_visible_timeout", "10s")
	config.SetDefault("session.network_idle_timeout", "30s")
	config.SetDefault("session.settle_delay", "3s")
	config.SetDefault("session.restart_backoff", "5s")
	config.SetDefault("session.verify_login", false)
	config.SetDefault("session.login_wait", "60s")

	config.SetDefault("typing.humanized", true)
	config.SetDefault("typing.min_key_delay", "20ms")
	config.SetDefault("typing.max_key_delay", "80ms")
	config.SetDefault("typing.pre_submit_min", "200ms")
	config.SetDefault("typing.pre_submit_max", "500ms")
	config.SetDefault("typing.between_min", "1s")
	config.SetDefault("typing.between_max", "3s")

	config.SetDefault("acquire.policy", "auto")
	config.SetDefault("acquire.kill_before_copy", false)
	config.SetDefault("acquire.cleanup", true)
}
