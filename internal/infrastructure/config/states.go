package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
	"github.com/xeipuuv/gojsonschema"
)

// statesSchemaJSON constrains the states override file: every listed state
// must be a non-empty string, labels map state IDs to display names.
const statesSchemaJSON = `{
  "type": "object",
  "properties": {
    "entry_states":   { "type": "array", "items": { "type": "string", "minLength": 1 } },
    "done_states":    { "type": "array", "items": { "type": "string", "minLength": 1 } },
    "tracked_states": { "type": "array", "items": { "type": "string", "minLength": 1 } },
    "labels": {
      "type": "object",
      "additionalProperties": { "type": "string" }
    }
  },
  "additionalProperties": false
}`

var statesSchemaLoader = gojsonschema.NewStringLoader(statesSchemaJSON)

// StateOverrides lets a workspace pin its own entry/done/tracked sets when
// the board's column configuration does not reflect how the team works.
type StateOverrides struct {
	EntryStates   []string          `json:"entry_states,omitempty"`
	DoneStates    []string          `json:"done_states,omitempty"`
	TrackedStates []string          `json:"tracked_states,omitempty"`
	Labels        map[string]string `json:"labels,omitempty"`
}

// LoadStateOverrides reads and validates the workspace states file,
// returning (nil, nil) when none exists.
func LoadStateOverrides(root string) (*StateOverrides, error) {
	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.StatesFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path resolved inside the workspace
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read states file: %w", err)
	}

	result, err := gojsonschema.Validate(statesSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to validate states file: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid states file: %s", strings.Join(problems, "; "))
	}

	var overrides StateOverrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal states file: %w", err)
	}

	return &overrides, nil
}

// Apply replaces the corresponding parts of the resolved sets. An unset
// field keeps the resolved value.
func (o *StateOverrides) Apply(sets tracker.StateSets) tracker.StateSets {
	if o == nil {
		return sets
	}
	if len(o.EntryStates) > 0 {
		sets.Entry = tracker.NewStateSet(o.EntryStates...)
	}
	if len(o.DoneStates) > 0 {
		sets.Done = tracker.NewStateSet(o.DoneStates...)
	}
	if len(o.TrackedStates) > 0 {
		sets.Tracked = tracker.NewStateSet(o.TrackedStates...)
	}
	if len(o.Labels) > 0 {
		if sets.Labels == nil {
			sets.Labels = make(map[string]string, len(o.Labels))
		}
		for id, label := range o.Labels {
			sets.Labels[id] = label
		}
	}
	return sets
}

// OverridingResolver decorates a remote state resolver with workspace
// overrides.
type OverridingResolver struct {
	inner tracker.StateResolver
	root  string
}

func NewOverridingResolver(inner tracker.StateResolver, root string) *OverridingResolver {
	return &OverridingResolver{inner: inner, root: root}
}

func (r *OverridingResolver) ResolveTrackedStates(ctx context.Context, boardID string) (tracker.StateSets, error) {
	sets, err := r.inner.ResolveTrackedStates(ctx, boardID)
	if err != nil {
		return tracker.StateSets{}, err
	}

	overrides, err := LoadStateOverrides(r.root)
	if err != nil {
		return tracker.StateSets{}, err
	}

	return overrides.Apply(sets), nil
}
