// Package config loads the resolver configuration.
//
// It uses Viper to read a YAML file, overlays environment variables (optionally
// loaded from a .env file through godotenv) and validates the result with
// struct tags.
//
// # Usage
//
//	cfg, err := config.Load("orders-api", config.WithEnvPrefix("RESOLVEKIT"))
//	if err != nil {
//	    return err
//	}
//	container, err := di.NewContainer(di.WithConfig(cfg.Resolver))
//
// Environment variables address nested keys with underscores, so
// RESOLVEKIT_RESOLVER_COMPILE_AFTER=5 sets resolver.compile_after.
package config
