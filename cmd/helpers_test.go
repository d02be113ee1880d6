package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Store:      config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "leads.db"), BatchSize: 1},
		AI:         config.AIConfig{Provider: "none"},
		Enrichment: config.EnrichmentConfig{Mode: config.EnrichModeOffline},
		Generation: config.GenerationConfig{SenderName: "Ashwin"},
		Delivery: config.DeliveryConfig{
			Mode:              config.DeliveryModeDryRun,
			MaxRetries:        2,
			RetryBackoffMs:    1000,
			MessagesPerMinute: 60,
			AuditLogPath:      filepath.Join(dir, "outreach.log"),
			SMTP:              config.SMTPConfig{Host: "localhost", Port: 1025, From: "me@agentic-ai.com"},
		},
		Pipeline: config.PipelineConfig{Seed: 1, LockPath: filepath.Join(dir, "outreach.lock")},
		Server:   config.ServerConfig{Port: 8080},
		Log:      config.LogConfig{Level: "info", Format: "json"},
	}
}

func testEnv(t *testing.T, c *config.Config, mode string) *stageEnv {
	t.Helper()
	env, err := initEnv(context.Background(), c, mode)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func seedLead(t *testing.T, env *stageEnv) *model.Lead {
	t.Helper()
	l := &model.Lead{FullName: "Jane Doe", Email: "jane@acme.test", CompanyName: "Acme", Role: "CTO", Industry: "Technology"}
	require.NoError(t, env.Store.InsertLead(context.Background(), l))
	return l
}
