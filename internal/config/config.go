package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Accounts   []string         `yaml:"accounts"`
	Schedule   string           `yaml:"schedule"`
	RunOnStart bool             `yaml:"run_on_start"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Publisher  PublisherConfig  `yaml:"publisher"`
}

type ScraperConfig struct {
	Type            string   `yaml:"type"`
	Mirrors         []string `yaml:"mirrors"`
	MaxPages        int      `yaml:"max_pages"`
	PostsPerAccount int      `yaml:"posts_per_account"`
}

type SummarizerConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int    `yaml:"max_tokens"`
	MaxPosts  int    `yaml:"max_posts"`
}

type PublisherConfig struct {
	Type    string        `yaml:"type"`
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// defaultAccounts is the fixed watchlist of AI company handles.
var defaultAccounts = []string{
	"OpenAI",
	"xai",
	"AnthropicAI",
	"GoogleDeepMind",
	"MistralAI",
	"AIatMeta",
	"Cohere",
	"perplexity_ai",
	"scale_ai",
	"runwayml",
	"dair_ai",
}

// defaultMirrors lists public Nitter front-ends, tried in order.
var defaultMirrors = []string{
	"https://nitter.net",
	"https://nitter.unixfox.eu",
	"https://nitter.kavin.rocks",
	"https://nitter.poast.org",
	"https://nitter.privacydev.net",
	"https://nitter.rawbit.ninja",
	"https://nitter.moomoo.me",
	"https://nitter.fdn.fr",
	"https://nitter.nixnet.services",
	"https://nitter.42l.fr",
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if len(cfg.Accounts) == 0 {
		cfg.Accounts = append(cfg.Accounts, defaultAccounts...)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 8 * * *"
	}
	if cfg.Scraper.Type == "" {
		cfg.Scraper.Type = "nitter"
	}
	if len(cfg.Scraper.Mirrors) == 0 {
		cfg.Scraper.Mirrors = append(cfg.Scraper.Mirrors, defaultMirrors...)
	}
	if cfg.Scraper.MaxPages == 0 {
		cfg.Scraper.MaxPages = 5
	}
	if cfg.Scraper.PostsPerAccount == 0 {
		cfg.Scraper.PostsPerAccount = 8
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "openai"
	}
	if cfg.Summarizer.Model == "" {
		switch cfg.Summarizer.Type {
		case "anthropic":
			cfg.Summarizer.Model = "claude-sonnet-4-20250514"
		default:
			cfg.Summarizer.Model = "gpt-4o-mini"
		}
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 600
	}
	if cfg.Summarizer.MaxPosts == 0 {
		cfg.Summarizer.MaxPosts = 25
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "stdout"
	}
}

func validate(cfg *Config) error {
	if len(cfg.Accounts) == 0 {
		return fmt.Errorf("config: at least one account is required")
	}
	switch cfg.Scraper.Type {
	case "nitter", "rss", "graphql":
	default:
		return fmt.Errorf("config: unsupported scraper type %q (supported: nitter, rss, graphql)", cfg.Scraper.Type)
	}
	if cfg.Scraper.Type != "graphql" && len(cfg.Scraper.Mirrors) == 0 {
		return fmt.Errorf("config: scraper.mirrors is required for %s scraper", cfg.Scraper.Type)
	}
	switch cfg.Summarizer.Type {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unsupported summarizer type %q (supported: openai, anthropic)", cfg.Summarizer.Type)
	}
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set OPENAI_API_KEY or ANTHROPIC_API_KEY env var)")
	}
	switch cfg.Publisher.Type {
	case "stdout", "slack", "discord":
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: stdout, slack, discord)", cfg.Publisher.Type)
	}
	if cfg.Publisher.Type == "slack" && cfg.Publisher.Slack.WebhookURL == "" {
		return fmt.Errorf("config: publisher.slack.webhook_url is required for slack publisher (set SLACK_WEBHOOK_URL env var)")
	}
	if cfg.Publisher.Type == "discord" && cfg.Publisher.Discord.WebhookURL == "" {
		return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
