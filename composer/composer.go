package composer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/mosaic/agent"
)

const (
	ReasonInsufficient = "insufficient_agents"
	ReasonDuplicate    = "duplicate_source"
	ReasonCycle        = "cycle"
	ReasonInvalid      = "invalid_source"
)

type CompositionError struct {
	Reason string
	Detail string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition failed (%s): %s", e.Reason, e.Detail)
}

// Compose merges two or more source agents into one composite config owned by
// requestedBy. Identity fields are a pure function of the ordered input, so
// the same sources always produce the same name, description, tools,
// triggers, and capabilities. Only the agent id and timestamps are fresh.
func Compose(sources []agent.Config, requestedBy string) (agent.Config, error) {
	if len(sources) < 2 {
		return agent.Config{}, &CompositionError{
			Reason: ReasonInsufficient,
			Detail: fmt.Sprintf("need at least 2 source agents, got %d", len(sources)),
		}
	}

	seen := map[string]struct{}{}
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return agent.Config{}, &CompositionError{Reason: ReasonInvalid, Detail: err.Error()}
		}
		if _, exists := seen[source.AgentId]; exists {
			return agent.Config{}, &CompositionError{
				Reason: ReasonDuplicate,
				Detail: fmt.Sprintf("agent %s appears more than once", source.AgentId),
			}
		}
		seen[source.AgentId] = struct{}{}
	}

	if cycle := findCycle(sources); len(cycle) > 0 {
		return agent.Config{}, &CompositionError{
			Reason: ReasonCycle,
			Detail: fmt.Sprintf("parent chain forms a cycle through %s", strings.Join(cycle, " -> ")),
		}
	}

	now := time.Now().UTC()

	composite := agent.Config{
		AgentId:     uuid.New().String(),
		Name:        synthesizeName(sources),
		Description: synthesizeDescription(sources),
		OwnerId:     requestedBy,
		// composing public agents does not make the result public
		IsPublic:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(sources[0].Category) > 0 {
		composite.Category = sources[0].Category
	}

	for _, source := range sources {
		composite.ParentAgentIds = append(composite.ParentAgentIds, source.AgentId)
		composite.Tools = append(composite.Tools, source.Tools...)
		composite.Triggers = append(composite.Triggers, source.Triggers...)
		composite.UseCases = append(composite.UseCases, source.UseCases...)
		composite.SelectedContextIds = append(composite.SelectedContextIds, source.SelectedContextIds...)
		composite.SelectedCategories = append(composite.SelectedCategories, source.SelectedCategories...)
		if len(source.Category) > 0 {
			composite.SelectedCategories = append(composite.SelectedCategories, source.Category)
		}
	}

	composite.Tools = unionSorted(composite.Tools)
	composite.Triggers = unionSorted(composite.Triggers)
	composite.UseCases = unionSorted(composite.UseCases)
	composite.SelectedContextIds = unionSorted(composite.SelectedContextIds)
	composite.SelectedCategories = unionSorted(composite.SelectedCategories)
	composite.Capabilities = mergeCapabilities(sources)

	composite.Normalize()

	return composite, nil
}

func synthesizeName(sources []agent.Config) string {
	names := make([]string, 0, len(sources))
	for _, source := range sources {
		names = append(names, source.Name)
	}
	return strings.Join(names, " + ")
}

func synthesizeDescription(sources []agent.Config) string {
	names := make([]string, 0, len(sources))
	for _, source := range sources {
		names = append(names, source.Name)
	}
	return fmt.Sprintf("Composite of %s", strings.Join(names, ", "))
}

// mergeCapabilities merges by name: higher proficiency wins, usage counts
// sum, and the merged success rate is the usage-weighted average so a
// high-traffic capability is not penalized by a low-traffic sibling. When no
// source has any usage the rates are averaged evenly.
func mergeCapabilities(sources []agent.Config) []agent.Capability {
	type accumulator struct {
		merged       agent.Capability
		weightedSum  float64
		plainSum     float64
		contributors int
	}

	byName := map[string]*accumulator{}
	order := []string{}

	for _, source := range sources {
		for _, capability := range source.Capabilities {
			name := strings.ToLower(strings.TrimSpace(capability.Name))

			acc, exists := byName[name]
			if !exists {
				acc = &accumulator{merged: capability}
				acc.merged.Name = name
				acc.merged.UsageCount = 0
				byName[name] = acc
				order = append(order, name)
			}

			if capability.ProficiencyLevel > acc.merged.ProficiencyLevel {
				acc.merged.ProficiencyLevel = capability.ProficiencyLevel
				acc.merged.Type = capability.Type
			}

			acc.merged.Domains = unionSorted(append(acc.merged.Domains, capability.Domains...))
			acc.merged.Prerequisites = unionSorted(append(acc.merged.Prerequisites, capability.Prerequisites...))
			acc.merged.UsageCount += capability.UsageCount
			acc.weightedSum += capability.SuccessRate * float64(capability.UsageCount)
			acc.plainSum += capability.SuccessRate
			acc.contributors++
		}
	}

	sort.Strings(order)

	capabilities := make([]agent.Capability, 0, len(order))
	for _, name := range order {
		acc := byName[name]
		if acc.merged.UsageCount > 0 {
			acc.merged.SuccessRate = acc.weightedSum / float64(acc.merged.UsageCount)
		} else if acc.contributors > 0 {
			acc.merged.SuccessRate = acc.plainSum / float64(acc.contributors)
		}
		capabilities = append(capabilities, acc.merged)
	}

	return capabilities
}

// findCycle walks parent references restricted to the source set. Provenance
// must stay acyclic: if following parents from one source can revisit a
// source already on the path, composition is rejected.
func findCycle(sources []agent.Config) []string {
	parents := map[string][]string{}
	for _, source := range sources {
		parents[source.AgentId] = source.ParentAgentIds
	}

	const (
		unvisited = iota
		inProgress
		done
	)

	state := map[string]int{}

	var path []string
	var walk func(id string) bool

	walk = func(id string) bool {
		edges, known := parents[id]
		if !known {
			// parent outside the source set; nothing further to follow
			return false
		}

		state[id] = inProgress
		path = append(path, id)

		for _, parent := range edges {
			switch state[parent] {
			case inProgress:
				path = append(path, parent)
				return true
			case unvisited:
				if walk(parent) {
					return true
				}
			}
		}

		state[id] = done
		path = path[:len(path)-1]

		return false
	}

	for _, source := range sources {
		if state[source.AgentId] == unvisited {
			path = nil
			if walk(source.AgentId) {
				return path
			}
		}
	}

	return nil
}

func unionSorted(values []string) []string {
	seen := map[string]struct{}{}
	union := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) == 0 {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		union = append(union, v)
	}

	sort.Strings(union)

	return union
}
