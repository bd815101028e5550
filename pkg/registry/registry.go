// Package registry provides the static node type registry: palette and canvas metadata per node type.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukex/flowedit/pkg/models"
)

var (
	// ErrUnknownNodeType is returned when a drag payload or lookup names an unregistered type.
	ErrUnknownNodeType = models.ErrUnknownNodeType

	// ErrAlreadyRegistered is returned when a node type is registered twice.
	ErrAlreadyRegistered = errors.New("node type already registered")
)

// Tier is a subscription tier. Tier availability only locks palette entries;
// the store never enforces it.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// ParseTier resolves a tier by name; "" is TierEnterprise.
func ParseTier(name string) (Tier, error) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(name))); tier {
	case "":
		return TierEnterprise, nil
	case TierFree, TierPro, TierEnterprise:
		return tier, nil
	}

	return "", fmt.Errorf("unknown tier %q", name)
}

// NodeMeta is the immutable registry entry for one node type.
type NodeMeta struct {
	Type         models.NodeType     `json:"type"`
	Category     models.CategoryType `json:"category"`
	DefaultLabel string              `json:"defaultLabel"`
	Icon         string              `json:"icon"`
	Color        string              `json:"color"`
	Description  string              `json:"description"`
	Tiers        []Tier              `json:"tiers"`
	ConfigSchema map[string]any      `json:"configSchema,omitempty"`
}

// AvailableIn reports whether the node type can be used on the given tier.
func (m NodeMeta) AvailableIn(tier Tier) bool {
	for _, t := range m.Tiers {
		if t == tier {
			return true
		}
	}

	return false
}

type Registry struct {
	logger  *slog.Logger
	entries map[models.NodeType]NodeMeta
	order   []models.NodeType
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		logger:  log,
		entries: make(map[models.NodeType]NodeMeta),
	}
}

// Register adds a node type. The type must belong to the closed enumeration.
func (r *Registry) Register(meta NodeMeta) error {
	if !meta.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, meta.Type)
	}

	if _, exists := r.entries[meta.Type]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, meta.Type)
	}

	if meta.Category == "" {
		meta.Category = meta.Type.Category()
	}

	if meta.DefaultLabel == "" {
		meta.DefaultLabel = meta.Type.DefaultLabel()
	}

	r.entries[meta.Type] = meta
	r.order = append(r.order, meta.Type)

	r.logger.Debug("Registered node type", slog.String("type", string(meta.Type)))

	return nil
}

// Lookup returns the metadata for a node type.
func (r *Registry) Lookup(t models.NodeType) (NodeMeta, bool) {
	meta, ok := r.entries[t]

	return meta, ok
}

// MustLookup is Lookup for types known to be registered. It panics otherwise.
func (r *Registry) MustLookup(t models.NodeType) NodeMeta {
	meta, ok := r.entries[t]
	if !ok {
		panic(fmt.Sprintf("registry: node type %q is not registered", t))
	}

	return meta
}

// All returns every entry in registration order.
func (r *Registry) All() []NodeMeta {
	metas := make([]NodeMeta, 0, len(r.order))
	for _, t := range r.order {
		metas = append(metas, r.entries[t])
	}

	return metas
}

// ByCategory returns the entries of one category in registration order.
func (r *Registry) ByCategory(category models.CategoryType) []NodeMeta {
	var metas []NodeMeta

	for _, t := range r.order {
		if meta := r.entries[t]; meta.Category == category {
			metas = append(metas, meta)
		}
	}

	return metas
}

// ConfigSchema returns the JSON schema for a node type's configuration, or nil.
func (r *Registry) ConfigSchema(t models.NodeType) map[string]any {
	return r.entries[t].ConfigSchema
}

// ParseDropPayload validates the string carried by a palette drag operation.
// Only registered node types are accepted.
func (r *Registry) ParseDropPayload(payload string) (models.NodeType, error) {
	t := models.NodeType(strings.TrimSpace(payload))

	if _, ok := r.entries[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, payload)
	}

	return t, nil
}

func (r *Registry) HealthCheck() (string, bool) {
	if len(r.entries) == 0 {
		return "No node types registered", false
	}

	return strconv.Itoa(len(r.entries)) + " node types registered", true
}
