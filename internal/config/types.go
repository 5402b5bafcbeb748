// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pyflat/pyflat/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultDebounce is how long watch mode waits for a burst of edits to settle.
	DefaultDebounce = 500 * time.Millisecond
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// LineWidth is the column after which a from-import is wrapped.
		LineWidth types.LineWidth `json:"line_width" mapstructure:"line_width"`
		// Shebang is prepended to outputs with an entry body.
		Shebang types.Shebang `json:"shebang" mapstructure:"shebang"`
		// IgnoreClashes disables the duplicate top-level name check.
		IgnoreClashes bool `json:"ignore_clashes" mapstructure:"ignore_clashes"`
		// Guards selects which entry guards survive flattening.
		Guards GuardsConfig `json:"guards" mapstructure:"guards"`
		// Exclude lists modules dropped from the output, relative to the package.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
		// Include re-admits modules below an excluded one.
		Include []string `json:"include" mapstructure:"include"`
		// StdlibExtra lists top-level modules grouped with the standard library.
		StdlibExtra []string `json:"stdlib_extra" mapstructure:"stdlib_extra"`
		// Output is the default destination; empty means stdout.
		Output string `json:"output,omitempty" mapstructure:"output"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures `pyflat watch`.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// GuardsConfig selects retained entry guards.
	GuardsConfig struct {
		All  bool     `json:"all" mapstructure:"all"`
		From []string `json:"from" mapstructure:"from"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}

	// WatchConfig configures re-flattening on change.
	WatchConfig struct {
		Debounce    time.Duration `json:"debounce" mapstructure:"debounce"`
		ClearScreen bool          `json:"clear_screen" mapstructure:"clear_screen"`
		// Ignore holds doublestar patterns, relative to the package, that never
		// trigger a rebuild.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}
)

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the sentinel and the individual causes.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid checks the values the CUE schema cannot see after defaults and
// flags have been merged in.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if err := c.LineWidth.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Shebang.Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch debounce %s is negative", c.Watch.Debounce))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LineWidth:   types.DefaultLineWidth,
		Shebang:     types.DefaultShebang,
		Guards:      GuardsConfig{From: []string{}},
		Exclude:     []string{},
		Include:     []string{},
		StdlibExtra: []string{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Watch: WatchConfig{
			Debounce:    DefaultDebounce,
			ClearScreen: true,
			Ignore:      []string{},
		},
	}
}
