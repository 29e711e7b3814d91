package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// Legacy flat setting keys drained into normalized overrides during the
// migration window.
var legacySyncKeys = []string{
	"enable_shopping",
	"enable_pricing",
	"enable_checkout",
	"enable_add_to_cart",
}

type legacySyncWriter interface {
	UpdateLegacySettings(ctx context.Context, clientID string, flags map[string]bool) (*entitlements.ResolvedFeatureSet, error)
}

// LegacySyncJobParams configure the legacy settings sync job.
type LegacySyncJobParams struct {
	Logger   *logger.Logger
	Settings entitlements.LegacySettingsReader
	Writer   legacySyncWriter
	ClientID string
}

// NewLegacySyncJob copies legacy site_settings rows into normalized
// per-client overrides so the flat table can eventually be dropped.
func NewLegacySyncJob(params LegacySyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("legacy settings reader required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("entitlements writer required")
	}
	if params.ClientID == "" {
		return nil, fmt.Errorf("client id required")
	}
	return &legacySyncJob{
		logg:     params.Logger,
		settings: params.Settings,
		writer:   params.Writer,
		clientID: params.ClientID,
	}, nil
}

type legacySyncJob struct {
	logg     *logger.Logger
	settings entitlements.LegacySettingsReader
	writer   legacySyncWriter
	clientID string
}

func (j *legacySyncJob) Name() string { return "legacy-settings-sync" }

func (j *legacySyncJob) Run(ctx context.Context) error {
	settings, err := j.settings.LegacySettings(ctx)
	if err != nil {
		return fmt.Errorf("reading legacy settings: %w", err)
	}

	flags := map[string]bool{}
	var parseErrs error
	for _, key := range legacySyncKeys {
		raw, ok := settings[key]
		if !ok {
			continue
		}
		switch raw {
		case "true":
			flags[key] = true
		case "false":
			flags[key] = false
		default:
			parseErrs = multierr.Append(parseErrs, fmt.Errorf("setting %q has malformed value %q", key, raw))
		}
	}

	if len(flags) == 0 {
		logCtx := j.logg.WithField(ctx, "client_id", j.clientID)
		j.logg.Info(logCtx, "no legacy settings to sync")
		return parseErrs
	}

	if _, err := j.writer.UpdateLegacySettings(ctx, j.clientID, flags); err != nil {
		return multierr.Combine(parseErrs, fmt.Errorf("writing overrides: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"client_id":   j.clientID,
		"keys_synced": len(flags),
	})
	j.logg.Info(logCtx, "legacy settings sync complete")
	return parseErrs
}
