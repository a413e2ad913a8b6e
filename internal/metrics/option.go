package metrics

// Config holds meter provider configuration.
type Config struct {
	ServiceName string
}

// OptionFn configures the meter provider.
type OptionFn func(config Config) Config

// WithServiceName sets the service name resource attribute.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// PromServerConfig holds scrape endpoint configuration.
type PromServerConfig struct {
	port string
}

// PromOptionFn configures the scrape endpoint.
type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the scrape endpoint port.
func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
