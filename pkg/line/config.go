package line

// Config represents the configuration for the LINE Messaging API client
type Config struct {
	// ChannelAccessToken is the long-lived channel token
	ChannelAccessToken string

	// BaseURL is the Messaging API base URL, https://api.line.me in production
	BaseURL string

	// DryRun logs messages instead of sending them
	DryRun bool
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DryRun {
		return nil
	}
	if c.ChannelAccessToken == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	return nil
}
