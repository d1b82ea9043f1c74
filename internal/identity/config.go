package identity

// Config contains identity verifier configuration.
type Config struct {
	ClientID     string `env:"CLIENT_ID"`
	TokenInfoURL string `env:"TOKENINFO_URL"     envDefault:"https://oauth2.googleapis.com/tokeninfo"`
	Timeout      int    `env:"TOKENINFO_TIMEOUT" envDefault:"10"`
}
