package extension

// Config holds the CareBill extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.carebill" or "carebill" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DevChecks enables post-read tenant verification on single-row lookups.
	DevChecks bool `json:"dev_checks" mapstructure:"dev_checks" yaml:"dev_checks"`

	// VATRate is the VAT rate applied at invoice generation, as a decimal
	// string ("0.2" for 20%). Empty means zero: domiciliary personal care
	// is VAT exempt in the UK.
	VATRate string `json:"vat_rate" mapstructure:"vat_rate" yaml:"vat_rate"`

	// HolidayRegion is the default bank holiday calendar
	// (default: "england-and-wales").
	HolidayRegion string `json:"holiday_region" mapstructure:"holiday_region" yaml:"holiday_region"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HolidayRegion: "england-and-wales",
	}
}
