// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModeScored = "scored"
	ModeSingle = "single"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	HiddenSetDB   = "db"
	HiddenSetFile = "file"
)

// Config is the full bot configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Discord DiscordConfig `mapstructure:"discord"`
	Storage StorageConfig `mapstructure:"storage"`
	Game    GameConfig    `mapstructure:"game"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

type DiscordConfig struct {
	Token             string   `mapstructure:"token"`
	GuildID           string   `mapstructure:"guild_id"`
	ModerationChannel string   `mapstructure:"moderation_channel"` // forwarded submissions land here
	LogChannel        string   `mapstructure:"log_channel"`
	OwnerID           string   `mapstructure:"owner_id"`
	AdminIDs          []string `mapstructure:"admin_ids"`
	ClaimEmoji        string   `mapstructure:"claim_emoji"` // empty accepts any reaction
	CommandPrefix     string   `mapstructure:"command_prefix"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	HiddenSet     string `mapstructure:"hidden_set"`
	HiddenSetFile string `mapstructure:"hidden_set_file"`
}

type GameConfig struct {
	Mode                string        `mapstructure:"mode"`
	CloseDelay          time.Duration `mapstructure:"close_delay"`
	MaxSubmissionLength int           `mapstructure:"max_submission_length"`
	LeaderboardPageSize int           `mapstructure:"leaderboard_page_size"`
	IDPattern           string        `mapstructure:"id_pattern"`
}

type HTTPConfig struct {
	ListenAddr     string `mapstructure:"listen_addr"` // empty disables the admin API
	AdminToken     string `mapstructure:"admin_token"`
	// comma separated, applied to the public leaderboard routes
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type ArchiveConfig struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

// Enabled reports whether dump archiving has a bucket to write to.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != "" && a.AccountID != ""
}

// Load reads .env, an optional config file and HIDESEEK_* variables, in that order of precedence (env wins).
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HIDESEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Printf("📄 Loaded config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside wiring.
func (c *Config) Validate() error {
	switch c.Game.Mode {
	case ModeScored, ModeSingle:
	default:
		return fmt.Errorf("game.mode must be %q or %q, got %q", ModeScored, ModeSingle, c.Game.Mode)
	}
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Storage.HiddenSet {
	case HiddenSetDB, HiddenSetFile:
	default:
		return fmt.Errorf("unknown storage.hidden_set %q", c.Storage.HiddenSet)
	}
	if c.Game.Mode == ModeSingle && c.Storage.HiddenSet == HiddenSetDB && c.Storage.Driver == DriverMemory {
		return fmt.Errorf("single mode with a db hidden set needs a postgres or sqlite driver")
	}
	if c.Game.CloseDelay <= 0 {
		return fmt.Errorf("game.close_delay must be positive")
	}
	if c.Game.MaxSubmissionLength <= 0 {
		return fmt.Errorf("game.max_submission_length must be positive")
	}
	if c.Game.LeaderboardPageSize <= 0 {
		return fmt.Errorf("game.leaderboard_page_size must be positive")
	}
	if c.HTTP.ListenAddr != "" && c.HTTP.AdminToken == "" {
		return fmt.Errorf("http.admin_token is required when http.listen_addr is set")
	}
	return nil
}

// IsAdmin reports whether the user may run admin chat commands.
func (d DiscordConfig) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	if userID == d.OwnerID {
		return true
	}
	for _, id := range d.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	// every key needs a default so AutomaticEnv can populate it through Unmarshal
	v.SetDefault("app.name", "hide-seek-bot")

	v.SetDefault("discord.token", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("discord.moderation_channel", "")
	v.SetDefault("discord.log_channel", "")
	v.SetDefault("discord.owner_id", "")
	v.SetDefault("discord.admin_ids", []string{})
	v.SetDefault("discord.claim_emoji", "")
	v.SetDefault("discord.command_prefix", "hs?")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sqlite_path", "./data/hideseek.db")
	v.SetDefault("storage.hidden_set", HiddenSetDB)
	v.SetDefault("storage.hidden_set_file", "./data/hidden.yaml")

	v.SetDefault("game.mode", ModeScored)
	v.SetDefault("game.close_delay", 10*time.Second)
	v.SetDefault("game.max_submission_length", 1024)
	v.SetDefault("game.leaderboard_page_size", 20)
	v.SetDefault("game.id_pattern", `^[1-9][0-9]{16,19}$`)

	v.SetDefault("http.listen_addr", "")
	v.SetDefault("http.admin_token", "")
	v.SetDefault("http.allowed_origins", "http://localhost:3000")

	v.SetDefault("archive.account_id", "")
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.access_key_secret", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.cdn_base_url", "")
}
