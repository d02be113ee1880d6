package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/delivery"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/pipeline"
)

func TestInitEnv_ValidatesConfig(t *testing.T) {
	c := testConfig(t)
	c.Enrichment.Mode = "magic"
	_, err := initEnv(context.Background(), c, "enrich")
	assert.ErrorContains(t, err, "enrichment.mode")
}

func TestInitStore_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mysql"
	_, err := initStore(context.Background(), c)
	assert.ErrorContains(t, err, "unsupported store driver: mysql")
}

func TestStageEnv_Stages(t *testing.T) {
	env := testEnv(t, testConfig(t), "run")
	assert.Nil(t, env.AI)

	all, err := env.stages(stageAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, enrich.StageName, all[0].Name())
	assert.Equal(t, generate.StageName, all[1].Name())
	assert.Equal(t, delivery.StageName, all[2].Name())

	one, err := env.stages(stageGenerate)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = env.stages("publish")
	assert.ErrorContains(t, err, `unknown stage "publish"`)
}

func TestStageEnv_LiveDeliveryOpensAuditLog(t *testing.T) {
	c := testConfig(t)
	c.Delivery.Mode = "live"
	env := testEnv(t, c, "deliver")

	d, err := env.deliveryStage()
	require.NoError(t, err)
	assert.True(t, d.Live())
	assert.NotNil(t, env.audit)
	assert.FileExists(t, c.Delivery.AuditLogPath)
}

func TestStageEnv_BadTemplatesPath(t *testing.T) {
	c := testConfig(t)
	c.Generation.TemplatesPath = "does-not-exist.yaml"
	env := testEnv(t, c, "generate")
	_, err := env.stages(stageGenerate)
	assert.ErrorContains(t, err, "generate: read catalog")
}

func TestStageEnv_RunLocked(t *testing.T) {
	c := testConfig(t)
	env := testEnv(t, c, "run")
	lead := seedLead(t, env)

	reports, err := env.runLocked(context.Background(), stageAll)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	got, err := env.Store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusSentDryRun, got.Status)
	assert.Equal(t, enrich.PersonaTechnical, got.Persona)
	assert.Contains(t, got.Messages.EmailVariant1.Body, "Ashwin")

	held, err := pipeline.AcquireLock(c.Pipeline.LockPath)
	require.NoError(t, err)
	defer held.Release() //nolint:errcheck
	_, err = env.runLocked(context.Background(), stageEnrich)
	assert.ErrorIs(t, err, pipeline.ErrLocked)
}
