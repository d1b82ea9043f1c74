package upstream

// Config contains upstream completion-API client configuration.
type Config struct {
	APIKey  string `env:"OPENAI_KEY"`
	BaseURL string `env:"UPSTREAM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout int    `env:"UPSTREAM_TIMEOUT"  envDefault:"60"`
}
