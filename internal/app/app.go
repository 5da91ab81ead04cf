package app

import (
	"context"
	"fmt"
)

// Serve assembles the application and runs it until ctx is done.
func Serve(ctx context.Context, cfg ServeConfig, logging LoggingConfig) error {
	application, err := InitializeApplication(ctx, cfg, logging)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	return application.Run()
}
