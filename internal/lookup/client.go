// Package lookup fetches a single establishment record from the public CNES
// open-data API.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "cnes-dashboard/internal/common/errors"
	apphttp "cnes-dashboard/internal/common/http"
	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/common/metrics"
	"cnes-dashboard/internal/common/validation"
	"cnes-dashboard/internal/models"
)

type Client struct {
	config *Config
	http   *apphttp.Client
	logger logger.Logger
}

func NewClient(cfg *Config, log logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.WrapConfigurationError("lookup", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: cfg,
		http:   apphttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "lookup"}),
	}, nil
}

// Lookup fetches the record for identifier. Non-numeric input fails with a
// validation error before any request is made. Every other failure, whether
// the record does not exist or the API misbehaved, is the same
// LOOKUP_FAILED error. One attempt is made.
func (c *Client) Lookup(ctx context.Context, identifier string) (*models.EstablishmentRecord, error) {
	id := strings.TrimSpace(identifier)
	if !validation.IsDigits(id) {
		metrics.Lookups.WithLabelValues(OutcomeInvalid, "").Inc()
		return nil, apperrors.NewValidationError(MessageDigitsOnly, fmt.Sprintf("identifier: %q", identifier))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	record, reason, err := c.fetch(ctx, id)
	if err != nil {
		metrics.Lookups.WithLabelValues(OutcomeFailed, reason).Inc()
		c.logger.Warn("CNES lookup failed", map[string]interface{}{
			"cnes":     id,
			"reason":   reason,
			"duration": time.Since(start).String(),
			"error":    err,
		})
		return nil, apperrors.NewLookupFailedError(id, reason)
	}

	metrics.Lookups.WithLabelValues(OutcomeFound, "").Inc()
	c.logger.Info("CNES lookup succeeded", map[string]interface{}{
		"cnes":     id,
		"duration": time.Since(start).String(),
	})
	return record, nil
}

func (c *Client) endpoint(id string) string {
	return c.config.BaseURL + "/cnes/estabelecimentos/" + url.PathEscape(id)
}

func (c *Client) fetch(ctx context.Context, id string) (*models.EstablishmentRecord, string, error) {
	res, err := c.http.Get(ctx, c.endpoint(id), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, networkReason(ctx, err), err
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ReasonNotFound, fmt.Errorf("status %d", res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return nil, ReasonHTTPStatus, fmt.Errorf("status %d", res.StatusCode)
	}

	result := responseSchema.Validate(res.Body)
	if !result.Valid {
		msg := "invalid body"
		if len(result.Errors) > 0 {
			msg = fmt.Sprintf("%s: %s", result.Errors[0].Field, result.Errors[0].Message)
		}
		return nil, ReasonInvalidBody, errors.New(msg)
	}

	var record models.EstablishmentRecord
	if err := json.Unmarshal(res.Body, &record); err != nil {
		return nil, ReasonInvalidBody, err
	}
	restoreLeadingZeros(&record, id)
	return &record, "", nil
}

// restoreLeadingZeros puts back the zero padding lost when the API sends
// codigo_cnes as a JSON number.
func restoreLeadingZeros(record *models.EstablishmentRecord, id string) {
	code := record.CodigoCNES.String()
	if code == id || code == "" {
		return
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if code == trimmed {
		record.CodigoCNES = models.FlexString(id)
	}
}

func networkReason(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}
