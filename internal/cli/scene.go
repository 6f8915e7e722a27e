package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/sim"
)

// sceneFile mirrors the scene JSON layout. Fields the runtime has no scalar
// representation for (transform and friends) are deliberately not decoded.
type sceneFile struct {
	Entities []sceneEntity `json:"entities"`
}

type sceneEntity struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Tags       []string       `json:"tags"`
	Parent     string         `json:"parent"` // "@<id>" reference, resolved after all spawns
}

// SceneError reports a malformed scene entry with its position in the file.
type SceneError struct {
	Index   int    // position in the entities array
	ID      string // entity id if known
	Message string
}

func (e *SceneError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("scene entity %d (%q): %s", e.Index, e.ID, e.Message)
	}
	return fmt.Sprintf("scene entity %d: %s", e.Index, e.Message)
}

// LoadScene parses a scene file and spawns every entity into the world.
// Returns the number of entities spawned.
//
// Spawning is two-phase: all entities activate first, then parent references
// resolve, so a parent declared after its child still resolves. A parent
// reference to an id missing from the scene fails the load.
func LoadScene(w *sim.World, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read scene: %w", err)
	}
	return LoadSceneBytes(w, data)
}

// LoadSceneBytes is LoadScene over in-memory data.
func LoadSceneBytes(w *sim.World, data []byte) (int, error) {
	var scene sceneFile
	if err := json.Unmarshal(data, &scene); err != nil {
		return 0, fmt.Errorf("parse scene: %w", err)
	}
	if len(scene.Entities) == 0 {
		return 0, fmt.Errorf("parse scene: no entities")
	}

	// Phase 1: spawn everything, remembering indices for parent resolution.
	spawned := make([]entity.Entity, len(scene.Entities))
	byID := make(map[string]entity.Entity, len(scene.Entities))
	for i, se := range scene.Entities {
		if se.ID != "" {
			if _, dup := byID[se.ID]; dup {
				return 0, &SceneError{Index: i, ID: se.ID, Message: "duplicate entity id"}
			}
		}

		props, err := component.ParseProperties(w.Bus(), se.Properties)
		if err != nil {
			return 0, &SceneError{Index: i, ID: se.ID, Message: err.Error()}
		}

		e, err := w.Spawn(se.ID, se.Tags, props)
		if err != nil {
			return 0, &SceneError{Index: i, ID: se.ID, Message: err.Error()}
		}
		spawned[i] = e
		if se.ID != "" {
			byID[se.ID] = e
		}
	}

	// Phase 2: resolve "@id" parent references.
	for i, se := range scene.Entities {
		if se.Parent == "" {
			continue
		}
		ref, ok := strings.CutPrefix(se.Parent, "@")
		if !ok || ref == "" {
			return 0, &SceneError{Index: i, ID: se.ID, Message: fmt.Sprintf("parent reference %q must be \"@<id>\"", se.Parent)}
		}
		parent, ok := byID[ref]
		if !ok {
			return 0, &SceneError{Index: i, ID: se.ID, Message: fmt.Sprintf("parent %q not found in scene", ref)}
		}
		if parent == spawned[i] {
			return 0, &SceneError{Index: i, ID: se.ID, Message: "entity cannot be its own parent"}
		}
		if err := w.Parents().SetBehavior(spawned[i], func(p *component.Parent) {
			p.Entity = parent
		}); err != nil {
			return 0, &SceneError{Index: i, ID: se.ID, Message: err.Error()}
		}
	}

	return len(scene.Entities), nil
}
