package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// amount accepts TOML strings, integers and floats. Strings are preferred since they
// keep every digit.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return err
		}
		a.Decimal = d
	case int64:
		a.Decimal = decimal.NewFromInt(x)
	case float64:
		a.Decimal = decimal.NewFromFloat(x)
	default:
		return fmt.Errorf("unsupported amount %v (%T)", v, v)
	}
	return nil
}

type fileSettings struct {
	LocalCurrency     string            `toml:"local_currency"`
	MinimumCommission amount            `toml:"minimum_commission"`
	Rates             map[string]amount `toml:"rates"`
}

// FileProvider reads business settings from a TOML file on every call, so edits take
// effect on the next operation without a restart.
//
//	local_currency = "XOF"
//	minimum_commission = "500"
//
//	[rates]
//	EUR = "655.957"
//	USD = "600"
type FileProvider struct {
	path          string
	localCurrency string
}

// NewFileProvider creates a provider for path. localCurrency applies when the file sets none.
func NewFileProvider(path, localCurrency string) *FileProvider {
	return &FileProvider{path: path, localCurrency: localCurrency}
}

var _ portssvc.SettingsProvider = (*FileProvider)(nil)

func (p *FileProvider) Current(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}
	var raw fileSettings
	if _, err := toml.DecodeFile(p.path, &raw); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to read settings file %s: %w", p.path, err)
	}

	settings := domain.Settings{
		LocalCurrency:     strings.ToUpper(strings.TrimSpace(raw.LocalCurrency)),
		MinimumCommission: raw.MinimumCommission.Decimal,
		Rates:             make(map[string]decimal.Decimal, len(raw.Rates)),
	}
	if settings.LocalCurrency == "" {
		settings.LocalCurrency = strings.ToUpper(p.localCurrency)
	}
	if settings.MinimumCommission.IsNegative() {
		return domain.Settings{}, fmt.Errorf("settings file %s: minimum_commission cannot be negative", p.path)
	}
	for currency, rate := range raw.Rates {
		if !rate.IsPositive() {
			return domain.Settings{}, fmt.Errorf("settings file %s: rate for %s must be positive", p.path, currency)
		}
		settings.Rates[strings.ToUpper(strings.TrimSpace(currency))] = rate.Decimal
	}
	return settings, nil
}
