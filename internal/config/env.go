package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envOverrides are the values allowed to come from the environment, so
// credentials can stay out of the config file entirely. Variables are
// prefixed ZILLOWBOT_, e.g. ZILLOWBOT_EMAIL_PASSWORD.
type envOverrides struct {
	EmailUsername  string `envconfig:"EMAIL_USERNAME"`
	EmailPassword  string `envconfig:"EMAIL_PASSWORD"`
	DiscordToken   string `envconfig:"DISCORD_TOKEN"`
	DiscordChannel string `envconfig:"DISCORD_CHANNEL"`
}

// OverlayEnv applies environment overrides on top of the loaded file.
// A .env file in the working directory is honored when present; in
// production the variables are usually injected directly.
func OverlayEnv(cfg *Config) error {
	_ = godotenv.Load()

	var ov envOverrides
	if err := envconfig.Process("zillowbot", &ov); err != nil {
		return err
	}

	if ov.EmailUsername != "" {
		cfg.Email.Username = ov.EmailUsername
	}
	if ov.EmailPassword != "" {
		cfg.Email.Password = ov.EmailPassword
	}
	if ov.DiscordToken != "" {
		cfg.Discord.Token = ov.DiscordToken
	}
	if ov.DiscordChannel != "" {
		cfg.Discord.ChannelID = ov.DiscordChannel
	}
	return nil
}
