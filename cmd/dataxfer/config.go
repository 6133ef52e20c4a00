package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/clip"
	"go.klb.dev/dataxfer/internal/clipboard"
	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/logging"
	"go.klb.dev/dataxfer/internal/policy"
)

const (
	keyRetryTimes = "retry-times"
	keyRetryDelay = "retry-delay"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and DATAXFER_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → DATAXFER_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("dataxfer")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/dataxfer/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/dataxfer", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("DATAXFER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	setupLogging(v)
	return nil
}

// addCommonFlags adds the config, logging, serialization policy and retry
// flags every clipboard command takes.
func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "path to config file (overrides auto-discovery)")
	f.String(logging.KeyFormat, "auto", "log format: auto|text|json")
	f.String(logging.KeyLevel, "", "log level: debug|info|warn|error (default: debug on a terminal, warn otherwise)")

	d := policy.Default()
	f.Bool(policy.KeyLegacy, d.LegacySerialization, "allow unrestricted object serialization")
	f.Bool(policy.KeyClipboardLegacy, d.ClipboardLegacySerialization, "allow unrestricted object serialization for clipboard payloads (needs --"+policy.KeyLegacy+")")
	f.Bool(policy.KeySafe, d.SafeSerialization, "decode the whitelist-only object format")

	f.Int(keyRetryTimes, clipboard.DefaultAttempts, "attempts before giving up on a busy clipboard")
	f.Duration(keyRetryDelay, clipboard.DefaultDelay, "pause between attempts")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	def := slog.LevelWarn
	if logging.IsTTY(os.Stderr) {
		def = slog.LevelDebug
	}
	logging.Setup(logging.ParseFormat(v.GetString(logging.KeyFormat)), logging.ParseLevel(v.GetString(logging.KeyLevel), def))
}

// newSession opens the platform clipboard and builds a session configured
// from v. The caller closes the platform.
func newSession(v *viper.Viper) (*clipboard.Session, clip.Platform) {
	p := clip.New()
	pol := policy.FromViper(v)
	slog.Debug("clipboard session",
		"platform", p.Name(),
		"legacy", pol.LegacyEnabled(),
		"retry_times", v.GetInt(keyRetryTimes),
		"retry_delay", v.GetDuration(keyRetryDelay),
	)
	s := clipboard.New(p,
		clipboard.WithCodec(codec.New(pol, binder.Default())),
		clipboard.WithRetry(v.GetInt(keyRetryTimes), v.GetDuration(keyRetryDelay)),
	)
	return s, p
}

// parseTextFormat maps a --text-format value to a text format.
func parseTextFormat(s string) (dataobject.TextFormat, error) {
	switch strings.ToLower(s) {
	case "", "unicode", "unicodetext":
		return dataobject.TextUnicode, nil
	case "text", "ansi":
		return dataobject.TextANSI, nil
	case "rtf":
		return dataobject.TextRtf, nil
	case "html":
		return dataobject.TextHtml, nil
	case "csv":
		return dataobject.TextCsv, nil
	}
	return 0, fmt.Errorf("unknown text format %q (unicode|text|rtf|html|csv)", s)
}
