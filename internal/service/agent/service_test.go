package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/chain"
	"github.com/w-h-a/mosaic/identity"
)

type echoExecutor struct{}

func (e *echoExecutor) Run(ctx context.Context, config agent.Config, input string) (string, error) {
	if config.Name == "broken" {
		return "", errors.New("agent crashed")
	}
	return input + "|" + config.AgentId, nil
}

func newTestService() *Service {
	return New(chain.NewLauncher(&echoExecutor{}), identity.NewProvider())
}

func asUser(userId string) context.Context {
	return identity.WithUserID(context.Background(), userId)
}

func testAgent(id, name, ownerId string) agent.Config {
	return agent.Config{
		AgentId: id,
		Name:    name,
		OwnerId: ownerId,
	}
}

func TestSaveRequiresIdentity(t *testing.T) {
	service := newTestService()

	_, err := service.Save(context.Background(), testAgent("a1", "Writer", "u1"))

	assert.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestSaveDefaultsOwnerToCaller(t *testing.T) {
	service := newTestService()

	saved, err := service.Save(asUser("u1"), testAgent("a1", "Writer", ""))
	require.NoError(t, err)

	assert.Equal(t, "u1", saved.OwnerId)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())
}

func TestSaveRejectsCreateForOtherUser(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "Planted", "u2"))
	assert.Error(t, err)

	// nothing was planted under u2's name
	_, err = service.Get(asUser("u2"), "a1")
	assert.Error(t, err)
}

func TestSaveRejectsUpdateByNonOwner(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "Writer", "u1"))
	require.NoError(t, err)

	hijacked := testAgent("a1", "Hijacked", "u2")
	_, err = service.Save(asUser("u2"), hijacked)
	assert.Error(t, err)

	// the original survives
	got, err := service.Get(asUser("u1"), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Writer", got.Name)
}

func TestGetHidesPrivateAgentsFromOtherUsers(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "Writer", "u1"))
	require.NoError(t, err)

	_, err = service.Get(asUser("u2"), "a1")
	assert.Error(t, err)

	_, err = service.Get(asUser("u1"), "a1")
	assert.NoError(t, err)
}

func TestListShowsOwnAndPublicAgents(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "Mine", "u1"))
	require.NoError(t, err)

	public := testAgent("a2", "Shared", "u2")
	public.IsPublic = true
	_, err = service.Save(asUser("u2"), public)
	require.NoError(t, err)

	_, err = service.Save(asUser("u2"), testAgent("a3", "Hidden", "u2"))
	require.NoError(t, err)

	configs, err := service.List(asUser("u1"))
	require.NoError(t, err)

	require.Len(t, configs, 2)
	assert.Equal(t, "a1", configs[0].AgentId)
	assert.Equal(t, "a2", configs[1].AgentId)
}

func TestRemixPersistsPrivateComposite(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "Writer", "u1"))
	require.NoError(t, err)
	_, err = service.Save(asUser("u1"), testAgent("a2", "Editor", "u1"))
	require.NoError(t, err)

	composite, err := service.Remix(asUser("u1"), []string{"a1", "a2"})
	require.NoError(t, err)

	assert.Equal(t, "Writer + Editor", composite.Name)
	assert.Equal(t, "u1", composite.OwnerId)
	assert.False(t, composite.IsPublic)

	// the composite is immediately retrievable by its owner
	got, err := service.Get(asUser("u1"), composite.AgentId)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, got.ParentAgentIds)
}

func TestRemixCanUsePublicSources(t *testing.T) {
	service := newTestService()

	public := testAgent("a1", "Shared", "u2")
	public.IsPublic = true
	_, err := service.Save(asUser("u2"), public)
	require.NoError(t, err)

	_, err = service.Save(asUser("u1"), testAgent("a2", "Mine", "u1"))
	require.NoError(t, err)

	composite, err := service.Remix(asUser("u1"), []string{"a1", "a2"})
	require.NoError(t, err)

	assert.Equal(t, "u1", composite.OwnerId)
}

func TestRemixRejectsInvisibleSources(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u2"), testAgent("a1", "Hidden", "u2"))
	require.NoError(t, err)
	_, err = service.Save(asUser("u1"), testAgent("a2", "Mine", "u1"))
	require.NoError(t, err)

	_, err = service.Remix(asUser("u1"), []string{"a1", "a2"})
	assert.Error(t, err)
}

func TestLaunchChainRecordsRun(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "first", "u1"))
	require.NoError(t, err)
	_, err = service.Save(asUser("u1"), testAgent("a2", "second", "u1"))
	require.NoError(t, err)

	run, err := service.LaunchChain(asUser("u1"), []string{"a1", "a2"}, "seed")
	require.NoError(t, err)
	assert.Equal(t, chain.RunCompleted, run.Status)

	got, err := service.GetRun(asUser("u1"), run.RunId)
	require.NoError(t, err)
	assert.Equal(t, run.RunId, got.RunId)
	assert.Equal(t, "seed|a1|a2", got.Steps[1].Output)
}

func TestLaunchChainFatalRunIsStillRecorded(t *testing.T) {
	service := newTestService()

	run, err := service.LaunchChain(asUser("u1"), nil, "seed")

	var chainErr *chain.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.NotNil(t, run)
	assert.Equal(t, chain.RunFailedFatal, run.Status)

	got, err := service.GetRun(asUser("u1"), run.RunId)
	require.NoError(t, err)
	assert.Equal(t, chain.RunFailedFatal, got.Status)
}

func TestLaunchChainIsolatesFailingStep(t *testing.T) {
	service := newTestService()

	_, err := service.Save(asUser("u1"), testAgent("a1", "first", "u1"))
	require.NoError(t, err)
	_, err = service.Save(asUser("u1"), testAgent("a2", "broken", "u1"))
	require.NoError(t, err)
	_, err = service.Save(asUser("u1"), testAgent("a3", "third", "u1"))
	require.NoError(t, err)

	run, err := service.LaunchChain(asUser("u1"), []string{"a1", "a2", "a3"}, "seed")
	require.NoError(t, err)

	assert.Equal(t, chain.RunFailedPartial, run.Status)
	assert.Equal(t, chain.StepFailed, run.Steps[1].Status)
	assert.Equal(t, "seed|a1|a3", run.Steps[2].Output)
}

func TestGetRunUnknownId(t *testing.T) {
	service := newTestService()

	_, err := service.GetRun(asUser("u1"), "missing")
	assert.Error(t, err)
}
