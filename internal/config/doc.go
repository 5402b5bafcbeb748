// SPDX-License-Identifier: MPL-2.0

// Package config handles pyflat configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pyflat/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/pyflat/config.cue on macOS, %APPDATA%\pyflat\config.cue
// on Windows), then from config.cue in the working directory. The file is validated
// against the embedded schema (config_schema.cue) before it is merged over the
// defaults; PYFLAT_* environment variables override both. Flags given on the command
// line win over everything and are applied by the CLI.
package config
