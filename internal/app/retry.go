package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "cnes-dashboard/internal/common/errors"
)

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts. Configuration errors are returned at once since no
// retry can fix them.
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation(ctx)
		if err == nil {
			return nil
		}
		if apperrors.CodeOf(err) == apperrors.ErrCodeConfigurationInvalid {
			return err
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s canceled after %d attempts: %w", operationName, i+1, err)
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
