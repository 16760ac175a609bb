// Package validation validates configuration and request structs using
// go-playground/validator tags and reports failures as AppErrors.
//
//	type StagingConfig struct {
//	    Bucket string `mapstructure:"bucket" validate:"required"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
package validation
