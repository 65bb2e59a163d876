package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags first and then the rules spanning several
// sections.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Metrics.Enabled && sameAddr(cfg.Metrics.Addr, cfg.Server.Addr) {
		return fmt.Errorf("metrics.addr: must differ from server.addr (%s)", cfg.Server.Addr)
	}

	return nil
}

func sameAddr(a, b string) bool {
	_, portA, errA := net.SplitHostPort(a)
	_, portB, errB := net.SplitHostPort(b)

	return a == b || (errA == nil && errB == nil && portA == portB)
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}

	return err
}
