package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/lib/pq"
	"google.golang.org/api/googleapi"

	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/models"
)

// classify maps a driver error onto the error taxonomy. Authentication and
// missing-database errors are configuration problems; unreachable servers
// are connection failures; everything else is a query failure.
func classify(ctx context.Context, queryType models.QueryType, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return apperrors.NewQueryTimeoutError(string(queryType))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28", "3D":
			return apperrors.WrapConfigurationError("database rejected the connection", err)
		case "08":
			return apperrors.NewDatabaseConnectionFailedError(err)
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return apperrors.WrapConfigurationError("warehouse rejected the credentials", err)
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}

	return apperrors.NewQueryExecutionFailedError(string(queryType), err)
}

// statusError classifies a non-2xx search response.
func statusError(queryType models.QueryType, status int, body string) error {
	err := fmt.Errorf("search returned %d: %s", status, body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.WrapConfigurationError("search cluster rejected the credentials", err)
	case http.StatusNotFound:
		return apperrors.WrapConfigurationError("search index not found", err)
	}
	return apperrors.NewQueryExecutionFailedError(string(queryType), err)
}
