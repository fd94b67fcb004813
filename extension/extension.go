// Package extension provides the Forge extension adapter for CareBill.
//
// It implements the forge.Extension interface to integrate CareBill
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.carebill" or
// "carebill" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	carebill "github.com/xraph/carebill"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "carebill"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Domiciliary care billing and reconciliation engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts CareBill as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *carebill.Engine
	store      store.Store
	engineOpts []carebill.Option
	useGrove   bool
}

// New creates a new CareBill Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying CareBill engine.
// This is nil until Register is called.
func (e *Extension) Engine() *carebill.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the billing engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = carebill.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*carebill.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("carebill: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("carebill: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs carebill.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]carebill.Option, error) {
	opts := make([]carebill.Option, 0, len(e.engineOpts)+3)

	if e.config.DisableMigrate {
		opts = append(opts, carebill.WithoutMigrate())
	}
	if e.config.DevChecks {
		opts = append(opts, carebill.WithDevChecks())
	}
	if e.config.VATRate != "" {
		rate, err := decimal.NewFromString(e.config.VATRate)
		if err != nil {
			return nil, fmt.Errorf("carebill: parse vat_rate %q: %w", e.config.VATRate, err)
		}
		opts = append(opts, carebill.WithVATRate(rate))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("carebill: configuration is required but not found in config files; " +
				"ensure 'extensions.carebill' or 'carebill' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("carebill: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("dev_checks", e.config.DevChecks),
		forge.F("vat_rate", e.config.VATRate),
		forge.F("holiday_region", e.config.HolidayRegion),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.carebill" first (namespaced pattern).
	if cm.IsSet("extensions.carebill") {
		if err := cm.Bind("extensions.carebill", &cfg); err == nil {
			e.Logger().Debug("carebill: loaded config from file",
				forge.F("key", "extensions.carebill"),
			)
			return cfg, true
		}
		e.Logger().Warn("carebill: failed to bind extensions.carebill config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "carebill" key.
	if cm.IsSet("carebill") {
		if err := cm.Bind("carebill", &cfg); err == nil {
			e.Logger().Debug("carebill: loaded config from file",
				forge.F("key", "carebill"),
			)
			return cfg, true
		}
		e.Logger().Warn("carebill: failed to bind carebill config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.HolidayRegion == "" {
		cfg.HolidayRegion = defaults.HolidayRegion
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DevChecks {
		yamlConfig.DevChecks = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.VATRate == "" && programmaticConfig.VATRate != "" {
		yamlConfig.VATRate = programmaticConfig.VATRate
	}
	if yamlConfig.HolidayRegion == "" && programmaticConfig.HolidayRegion != "" {
		yamlConfig.HolidayRegion = programmaticConfig.HolidayRegion
	}
	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
