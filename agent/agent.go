package agent

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is one agent's full configuration: identity, capability set, tools,
// and the content it is scoped to via SelectedContextIds.
type Config struct {
	AgentId            string       `json:"agent_id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	UseCases           []string     `json:"use_cases"`
	SelectedCategories []string     `json:"selected_categories"`
	Triggers           []string     `json:"triggers"`
	IsPublic           bool         `json:"is_public"`
	OwnerId            string       `json:"owner_id"`
	ParentAgentIds     []string     `json:"parent_agent_ids"`
	SelectedContextIds []string     `json:"selected_context_ids"`
	Capabilities       []Capability `json:"capabilities"`
	Tools              []string     `json:"tools"`
	Metrics            Metrics      `json:"performance_metrics"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type Capability struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	ProficiencyLevel float64  `json:"proficiency_level"`
	Domains          []string `json:"domains"`
	Prerequisites    []string `json:"prerequisites"`
	UsageCount       int      `json:"usage_count"`
	SuccessRate      float64  `json:"success_rate"`
}

type Metrics struct {
	TotalRuns   int     `json:"total_runs"`
	SuccessRate float64 `json:"success_rate"`
}

// Normalize lowercases and trims triggers, tools, and category so set
// operations during composition compare like with like.
func (c *Config) Normalize() {
	c.Triggers = normalizeSet(c.Triggers)
	c.Tools = normalizeSet(c.Tools)
	c.SelectedCategories = normalizeSet(c.SelectedCategories)
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
}

// Validate rejects malformed configs at the boundary. Out-of-range capability
// scores are errors, not clamped.
func (c *Config) Validate() error {
	if len(strings.TrimSpace(c.AgentId)) == 0 {
		return errors.New("agent id is required")
	}

	if len(strings.TrimSpace(c.Name)) == 0 {
		return errors.New("agent name is required")
	}

	if len(strings.TrimSpace(c.OwnerId)) == 0 {
		return errors.New("agent owner is required")
	}

	for _, parent := range c.ParentAgentIds {
		if parent == c.AgentId {
			return fmt.Errorf("agent %s lists itself as a parent", c.AgentId)
		}
	}

	for _, capability := range c.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (c Capability) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return errors.New("capability name is required")
	}

	if c.ProficiencyLevel < 0 || c.ProficiencyLevel > 1 {
		return fmt.Errorf("capability %s has proficiency %v outside [0,1]", c.Name, c.ProficiencyLevel)
	}

	if c.SuccessRate < 0 || c.SuccessRate > 1 {
		return fmt.Errorf("capability %s has success rate %v outside [0,1]", c.Name, c.SuccessRate)
	}

	return nil
}

// VisibleTo reports whether a requester may see this config. Private agents
// are visible only to their owner.
func (c Config) VisibleTo(userId string) bool {
	return c.IsPublic || c.OwnerId == userId
}

func normalizeSet(values []string) []string {
	seen := map[string]struct{}{}
	normalized := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if len(v) == 0 {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		normalized = append(normalized, v)
	}

	sort.Strings(normalized)

	return normalized
}
