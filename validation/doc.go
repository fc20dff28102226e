// Package validation validates configuration structs and pipeline variables.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure key, so messages match config.yml:
//
//	type Config struct {
//	    MaxParallel int `mapstructure:"max_parallel" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects every problem before failing:
//
//	v := validation.New()
//	v.Required("gcs_bucket", bucket).Min("number_of_advertisers_per_sdf_api_call", n, 1)
//	err := v.Validate()
package validation
