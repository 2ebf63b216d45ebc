package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/utils"
)

// missingParameter is printed for parameters absent from the query, the way a page script sees them.
const missingParameter = "undefined"

// Inspection is what the URL utilities extract from a URL.
type Inspection struct {
	// Origin is the scheme and host prefix of the URL.
	Origin string `yaml:"origin"`
	// Search is the query including the leading '?'.
	Search string `yaml:"search"`
	// Parameters are the raw, undecoded query parameters.
	Parameters map[string]string `yaml:"parameters"`
}

// ExecuteInspectCommand prints the origin and query parameters of rawURL.
// When keys are given only those parameters are printed.
func ExecuteInspectCommand(ctx context.Context, rawURL string, keys []string) {
	if err := Inspect(os.Stdout, rawURL, keys); err != nil {
		logger.Fatalf(ctx, "Failed to inspect URL: %v", err)
	}
}

// Inspect writes the inspection of rawURL to out as YAML.
func Inspect(out io.Writer, rawURL string, keys []string) error {
	search, err := utils.SearchFromLocation(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	inspection := Inspection{
		Origin:     utils.ExtractOrigin(rawURL),
		Search:     search,
		Parameters: utils.ParseQueryParameters(search),
	}

	if len(keys) > 0 {
		selected := make(map[string]string, len(keys))

		for _, key := range keys {
			value, ok := utils.QueryParameter(search, key)
			if !ok {
				value = missingParameter
			}

			selected[key] = value
		}

		inspection.Parameters = selected
	}

	encoder := yaml.NewEncoder(out)

	if err = encoder.Encode(inspection); err != nil {
		return fmt.Errorf("failed to encode inspection: %w", err)
	}

	if err = encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush inspection: %w", err)
	}

	return nil
}
