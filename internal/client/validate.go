package client

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validatePayload checks a request body before it is sent to the backend.
func validatePayload(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
