package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/clawsync/internal/adapters/gateway"
	statusadapter "github.com/bnema/clawsync/internal/adapters/render/status"
	tomlrepo "github.com/bnema/clawsync/internal/adapters/repo/toml"
	chainstore "github.com/bnema/clawsync/internal/adapters/secrets/chain"
	"github.com/bnema/clawsync/internal/application"
	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/logging"
	"github.com/bnema/clawsync/internal/ports"
	"github.com/bnema/clawsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	envPrefix      = "CLAWSYNC"
	configName     = "config"
	configType     = "toml"
	configDir      = ".config/clawsync"
	tokenDir       = "tokens"
	defaultProfile = "default"
	defaultURL     = "ws://127.0.0.1:18789"
)

const (
	keyGatewayURL           = "gateway.url"
	keyGatewayToken         = "gateway.token"
	keyGatewayProfile       = "gateway.profile"
	keyRequestTimeout       = "gateway.request_timeout"
	keyMaxReconnectAttempts = "gateway.max_reconnect_attempts"
	keySessionsInterval     = "poll.sessions_interval"
	keyUsageInterval        = "poll.usage_interval"
	keyBatchQuiescence      = "batch.quiescence"
	keyMethodAgents         = "methods.agents"
	keyMethodSessions       = "methods.sessions"
	keyMethodUsageStatus    = "methods.usage_status"
	keyMethodUsageCost      = "methods.usage_cost"
	keyLogLevel             = "log.level"
	keyLogJSON              = "log.json"
)

var errNoGatewayToken = errors.New("no gateway token configured")

type app struct {
	config         *viper.Viper
	configDir      string
	tokens         ports.TokenStore
	clock          ports.Clock
	logger         *zap.Logger
	statusRenderer func(application.Snapshot, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

type gatewaySettings struct {
	URL              string
	Token            string
	Profile          string
	RequestTimeout   time.Duration
	MaxReconnects    int
	SessionsInterval time.Duration
	UsageInterval    time.Duration
	Quiescence       time.Duration
	Methods          gateway.Methods
}

func wireApp(root *cobra.Command) (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, configDir)

	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	methods := gateway.DefaultMethods()
	cfg.SetDefault(keyGatewayURL, defaultURL)
	cfg.SetDefault(keyGatewayProfile, defaultProfile)
	cfg.SetDefault(keyRequestTimeout, gateway.DefaultRequestTimeout)
	cfg.SetDefault(keyMaxReconnectAttempts, gateway.DefaultMaxReconnects)
	cfg.SetDefault(keySessionsInterval, application.DefaultSessionsInterval)
	cfg.SetDefault(keyUsageInterval, application.DefaultUsageInterval)
	cfg.SetDefault(keyBatchQuiescence, application.DefaultQuiescence)
	cfg.SetDefault(keyMethodAgents, methods.Agents)
	cfg.SetDefault(keyMethodSessions, methods.Sessions)
	cfg.SetDefault(keyMethodUsageStatus, methods.UsageStatus)
	cfg.SetDefault(keyMethodUsageCost, methods.UsageCost)
	cfg.SetDefault(keyLogLevel, logging.DefaultLevel)

	flags := root.PersistentFlags()
	for key, flag := range map[string]string{
		keyGatewayURL:     "gateway",
		keyGatewayProfile: "profile",
		keyLogLevel:       "log-level",
		keyLogJSON:        "log-json",
	} {
		if err := cfg.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}

	tokens, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(dir, tokenDir))
	if err != nil {
		return nil, fmt.Errorf("wire token store chain: %w", err)
	}

	return &app{
		config:         cfg,
		configDir:      dir,
		tokens:         tokens,
		clock:          ports.SystemClock{},
		logger:         zap.NewNop(),
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

// init reads the config file and builds the logger once flags are parsed.
func (a *app) init(configFile string) error {
	if configFile != "" {
		a.config.SetConfigFile(configFile)
	}
	if err := a.config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	logger, err := logging.New(a.config.GetString(keyLogLevel), a.config.GetBool(keyLogJSON))
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) profile() string {
	if profile := strings.TrimSpace(a.config.GetString(keyGatewayProfile)); profile != "" {
		return profile
	}
	return defaultProfile
}

func (a *app) preferences() (*tomlrepo.Repository, error) {
	a.config.SetDefault(tomlrepo.PreferencesPathKey, filepath.Join(a.configDir, "preferences.toml"))
	repo, err := tomlrepo.NewRepository(a.config)
	if err != nil {
		return nil, fmt.Errorf("wire preferences repository: %w", err)
	}
	return repo, nil
}

func (a *app) gatewaySettings(ctx context.Context) (gatewaySettings, error) {
	settings := gatewaySettings{
		URL:              strings.TrimSpace(a.config.GetString(keyGatewayURL)),
		Token:            strings.TrimSpace(a.config.GetString(keyGatewayToken)),
		Profile:          a.profile(),
		RequestTimeout:   a.config.GetDuration(keyRequestTimeout),
		MaxReconnects:    a.config.GetInt(keyMaxReconnectAttempts),
		SessionsInterval: a.config.GetDuration(keySessionsInterval),
		UsageInterval:    a.config.GetDuration(keyUsageInterval),
		Quiescence:       a.config.GetDuration(keyBatchQuiescence),
		Methods: gateway.Methods{
			Agents:      a.config.GetString(keyMethodAgents),
			Sessions:    a.config.GetString(keyMethodSessions),
			UsageStatus: a.config.GetString(keyMethodUsageStatus),
			UsageCost:   a.config.GetString(keyMethodUsageCost),
		},
	}
	if settings.URL == "" {
		return gatewaySettings{}, errors.New("gateway url is empty")
	}

	if settings.Token == "" {
		token, err := a.tokens.Token(ctx, settings.Profile)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				return gatewaySettings{}, fmt.Errorf("%w for profile %q (run `clawsync token set`)", errNoGatewayToken, settings.Profile)
			}
			return gatewaySettings{}, fmt.Errorf("load gateway token: %w", err)
		}
		settings.Token = token
	}

	return settings, nil
}

// session is one live Gateway connection feeding a store.
type session struct {
	client *gateway.Client
	store  *application.Store
	engine *application.Engine
	prefs  *tomlrepo.Repository
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	settings, err := a.gatewaySettings(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := a.preferences()
	if err != nil {
		return nil, err
	}

	client := gateway.NewClient(gateway.Config{
		Client:               gateway.ClientInfo{Version: version.Version},
		MaxReconnectAttempts: settings.MaxReconnects,
		RequestTimeout:       settings.RequestTimeout,
		Logger:               a.logger,
	})
	store := application.NewStore(a.clock,
		application.WithPreferencesRepository(repo),
		application.WithStoreLogger(a.logger),
	)
	if err := store.LoadPreferences(ctx); err != nil {
		a.logger.Warn("preferences unavailable, using defaults", zap.Error(err))
	}

	engine := application.NewEngine(
		gateway.NewFeed(client, a.clock),
		gateway.NewAPI(client, settings.Methods),
		store,
		application.EngineConfig{
			SessionsInterval: settings.SessionsInterval,
			UsageInterval:    settings.UsageInterval,
			Quiescence:       settings.Quiescence,
			Clock:            a.clock,
			Logger:           a.logger,
		},
	)
	engine.Start(ctx)

	a.logger.Debug("connecting", zap.String("url", settings.URL), zap.String("profile", settings.Profile))
	client.Connect(settings.URL, settings.Token)

	return &session{client: client, store: store, engine: engine, prefs: repo}, nil
}

func (s *session) Close() {
	s.engine.Stop()
	s.client.Disconnect()
}
