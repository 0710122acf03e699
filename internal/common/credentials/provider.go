package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cnes-dashboard/internal/common/config"
	apperrors "cnes-dashboard/internal/common/errors"
)

const (
	SourceInline = "GCP_CREDENTIALS"
	SourceFile   = "GCP_CREDENTIALS_FILE"
	SourceSQL    = "database"
	SourceSearch = "elasticsearch"
)

// Credentials is an opaque handle; only the database package reads its
// fields when opening connections.
type Credentials struct {
	Source             string
	DSN                string
	ServiceAccountJSON []byte
	ProjectID          string
}

type Provider interface {
	Resolve(ctx context.Context) (*Credentials, error)
}

// EnvProvider resolves credentials from the loaded configuration, which in
// turn is fed by the config file, .env and the process environment.
type EnvProvider struct {
	cfg *config.Config
}

func NewEnvProvider(cfg *config.Config) *EnvProvider {
	return &EnvProvider{cfg: cfg}
}

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func (p *EnvProvider) Resolve(ctx context.Context) (*Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch p.cfg.Backend.Kind {
	case config.BackendBigQuery:
		return p.resolveServiceAccount()
	case config.BackendElasticsearch:
		return &Credentials{Source: SourceSearch}, nil
	default:
		return p.resolveSQL()
	}
}

func (p *EnvProvider) resolveServiceAccount() (*Credentials, error) {
	source := SourceInline
	raw := strings.TrimSpace(p.cfg.Credentials.GCPCredentials)
	if raw == "" && p.cfg.Credentials.GCPCredentialsFile != "" {
		data, err := os.ReadFile(p.cfg.Credentials.GCPCredentialsFile)
		if err != nil {
			return nil, apperrors.WrapConfigurationError("read service account file", err)
		}
		raw = strings.TrimSpace(string(data))
		source = SourceFile
	}
	if raw == "" {
		return nil, apperrors.NewConfigurationError("service account credentials not found in GCP_CREDENTIALS or GCP_CREDENTIALS_FILE")
	}

	var sa serviceAccount
	if err := json.Unmarshal([]byte(raw), &sa); err != nil {
		return nil, apperrors.WrapConfigurationError(fmt.Sprintf("parse service account from %s", source), err)
	}
	if sa.Type != "service_account" {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("credentials from %s have type %q, want service_account", source, sa.Type))
	}

	projectID := p.cfg.Database.BigQuery.ProjectID
	if projectID == "" {
		projectID = sa.ProjectID
	}
	if projectID == "" {
		return nil, apperrors.NewConfigurationError("no project id in database.bigquery.project_id or service account")
	}

	return &Credentials{
		Source:             source,
		ServiceAccountJSON: []byte(raw),
		ProjectID:          projectID,
	}, nil
}

func (p *EnvProvider) resolveSQL() (*Credentials, error) {
	switch p.cfg.Backend.Driver {
	case config.DriverSQLite:
		if p.cfg.Database.SQLite.Path == "" {
			return nil, apperrors.NewConfigurationError("database.sqlite.path is required for the sqlite driver")
		}
		return &Credentials{Source: SourceSQL, DSN: p.cfg.Database.SQLite.Path}, nil
	default:
		if !p.cfg.Database.Postgres.HasCredentials() {
			return nil, apperrors.NewConfigurationError("postgres credentials not found: set DATABASE_URL or database.postgres host/database/user")
		}
		return &Credentials{Source: SourceSQL, DSN: p.cfg.Database.Postgres.GetDSN()}, nil
	}
}

// Static is a Provider returning fixed credentials, for tools and tests.
type Static struct {
	Credentials *Credentials
}

func (s Static) Resolve(ctx context.Context) (*Credentials, error) {
	if s.Credentials == nil {
		return nil, apperrors.NewConfigurationError("no credentials configured")
	}
	return s.Credentials, nil
}
