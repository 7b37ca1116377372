// Package validation validates configuration structs with struct tags.
//
//	type ResolverConfig struct {
//	    Engine       string `mapstructure:"engine" validate:"oneof=compiled interpreted dynamic"`
//	    CompileAfter int    `mapstructure:"compile_after" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are INVALID_CONFIG errors whose "fields" detail lists each
// rejected field under its configuration key.
package validation
