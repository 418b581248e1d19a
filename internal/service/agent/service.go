package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/chain"
	"github.com/w-h-a/mosaic/composer"
	"github.com/w-h-a/mosaic/identity"
)

// Service owns agent configs and chain runs. Configs are flat documents
// keyed by id; relationships are resolved through explicit id lists.
type Service struct {
	launcher *chain.Launcher
	identity identity.Provider

	agents map[string]agent.Config
	runs   map[string]*chain.Run
	mtx    sync.RWMutex
}

func (s *Service) Save(ctx context.Context, config agent.Config) (agent.Config, error) {
	userId, err := s.identity.UserID(ctx)
	if err != nil {
		return agent.Config{}, err
	}

	config.Normalize()

	if len(config.OwnerId) == 0 {
		config.OwnerId = userId
	}

	if err := config.Validate(); err != nil {
		return agent.Config{}, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if existing, exists := s.agents[config.AgentId]; exists {
		if existing.OwnerId != userId {
			return agent.Config{}, fmt.Errorf("agent %s may only be updated by its owner", config.AgentId)
		}
		config.CreatedAt = existing.CreatedAt
	} else if config.OwnerId != userId {
		return agent.Config{}, fmt.Errorf("agent %s may only be created for the calling user", config.AgentId)
	}

	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	s.agents[config.AgentId] = config

	return config, nil
}

func (s *Service) Get(ctx context.Context, agentId string) (agent.Config, error) {
	userId, err := s.identity.UserID(ctx)
	if err != nil {
		return agent.Config{}, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	config, exists := s.agents[agentId]
	if !exists || !config.VisibleTo(userId) {
		return agent.Config{}, fmt.Errorf("agent %s not found", agentId)
	}

	return config, nil
}

func (s *Service) List(ctx context.Context) ([]agent.Config, error) {
	userId, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var configs []agent.Config
	for _, config := range s.agents {
		if config.VisibleTo(userId) {
			configs = append(configs, config)
		}
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].AgentId < configs[j].AgentId
	})

	return configs, nil
}

// Remix composes the named agents, in order, into a new private agent owned
// by the caller. Sources are snapshotted before composition.
func (s *Service) Remix(ctx context.Context, sourceIds []string) (agent.Config, error) {
	userId, err := s.identity.UserID(ctx)
	if err != nil {
		return agent.Config{}, err
	}

	sources, err := s.snapshot(sourceIds, userId)
	if err != nil {
		return agent.Config{}, err
	}

	composite, err := composer.Compose(sources, userId)
	if err != nil {
		return agent.Config{}, err
	}

	s.mtx.Lock()
	s.agents[composite.AgentId] = composite
	s.mtx.Unlock()

	return composite, nil
}

// LaunchChain runs the named agents in order and records the run report.
func (s *Service) LaunchChain(ctx context.Context, agentIds []string, input string) (*chain.Run, error) {
	userId, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}

	configs, err := s.snapshot(agentIds, userId)
	if err != nil {
		return nil, err
	}

	run, launchErr := s.launcher.Launch(ctx, configs, input)

	if run != nil {
		s.mtx.Lock()
		s.runs[run.RunId] = run
		s.mtx.Unlock()
	}

	return run, launchErr
}

func (s *Service) GetRun(ctx context.Context, runId string) (*chain.Run, error) {
	if _, err := s.identity.UserID(ctx); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	run, exists := s.runs[runId]
	if !exists {
		return nil, fmt.Errorf("run %s not found", runId)
	}

	return run, nil
}

func (s *Service) snapshot(agentIds []string, userId string) ([]agent.Config, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	configs := make([]agent.Config, 0, len(agentIds))
	for _, id := range agentIds {
		config, exists := s.agents[id]
		if !exists || !config.VisibleTo(userId) {
			return nil, fmt.Errorf("agent %s not found", id)
		}
		configs = append(configs, config)
	}

	return configs, nil
}

func New(launcher *chain.Launcher, identity identity.Provider) *Service {
	if launcher == nil {
		panic("launcher is required")
	}

	if identity == nil {
		panic("identity provider is required")
	}

	return &Service{
		launcher: launcher,
		identity: identity,
		agents:   map[string]agent.Config{},
		runs:     map[string]*chain.Run{},
	}
}
