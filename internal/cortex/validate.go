package cortex

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Validate syntax checks sketch code with esbuild and returns one line per
// error. An empty result means the code parses.
func Validate(code string) []string {
	result := api.Transform(code, api.TransformOptions{
		Loader:   api.LoaderJS,
		Target:   api.ES2020,
		LogLevel: api.LogLevelSilent,
	})

	if len(result.Errors) == 0 {
		return nil
	}

	diags := make([]string, 0, len(result.Errors))
	for _, msg := range result.Errors {
		if msg.Location == nil {
			diags = append(diags, msg.Text)
			continue
		}
		diags = append(diags, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
	}
	return diags
}
