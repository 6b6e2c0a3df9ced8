package graph

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// entityNamespace scopes the name-based UUIDs used for entity ids.
var entityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docgraph:entity"))

// IdentityKey is the normalized identity of an entity within one document.
// Kind is a native tagger label in model mode and a category in heuristic mode.
type IdentityKey struct {
	Text string
	Kind string
}

func (k IdentityKey) String() string {
	return k.Kind + "|" + k.Text
}

// EntityID derives the deterministic id of a key.
func EntityID(key IdentityKey) string {
	sum := uuid.NewSHA1(entityNamespace, []byte(key.String()))
	return "e_" + hex.EncodeToString(sum[:6])
}

// IdentityResolver maps identity keys to entity ids for a single document
// and keeps the entities in creation order. It is not safe for concurrent use.
type IdentityResolver struct {
	ids      map[IdentityKey]string
	keys     map[string]IdentityKey
	index    map[string]int
	entities []Entity
}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{
		ids:   make(map[IdentityKey]string),
		keys:  make(map[string]IdentityKey),
		index: make(map[string]int),
	}
}

// Resolve returns the id for key. The first time a key is seen, create is
// called with the new id to build the entity; later calls return the same id
// and leave the stored entity untouched.
func (r *IdentityResolver) Resolve(key IdentityKey, create func(id string) Entity) (string, bool) {
	if id, ok := r.ids[key]; ok {
		return id, false
	}

	id := EntityID(key)
	for n := 2; ; n++ {
		if _, taken := r.keys[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s_%d", EntityID(key), n)
	}

	entity := create(id)
	entity.ID = id
	if entity.Metadata == nil {
		entity.Metadata = make(map[string]interface{})
	}

	r.ids[key] = id
	r.keys[id] = key
	r.index[id] = len(r.entities)
	r.entities = append(r.entities, entity)
	return id, true
}

// Lookup returns the id already assigned to key.
func (r *IdentityResolver) Lookup(key IdentityKey) (string, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Key returns the identity key an id was created for.
func (r *IdentityResolver) Key(id string) (IdentityKey, bool) {
	key, ok := r.keys[id]
	return key, ok
}

// Entity returns the entity created for id.
func (r *IdentityResolver) Entity(id string) (Entity, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entity{}, false
	}
	return r.entities[i], true
}

// Entities returns the entities in creation order.
func (r *IdentityResolver) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *IdentityResolver) Len() int {
	return len(r.entities)
}
