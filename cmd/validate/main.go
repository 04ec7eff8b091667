package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/avelichko/envoy-engine/pkg/content"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
	"github.com/avelichko/envoy-engine/pkg/engine"
	"github.com/avelichko/envoy-engine/pkg/narrative"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data-dir> <module>\n", os.Args[0])
		os.Exit(1)
	}

	dataDir := os.Args[1]
	module := os.Args[2]
	validator := &ModuleValidator{
		store:  content.NewStore(dataDir, nil),
		module: module,
	}

	if err := validator.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Module %s is valid!\n", module)
}

type ModuleValidator struct {
	store  *content.Store
	module string
	errors []string
}

func (v *ModuleValidator) validate() error {
	fmt.Printf("Validating module %s...\n", v.module)

	if !isValidID(v.module) {
		return fmt.Errorf("module name '%s' must be lowercase snake_case", v.module)
	}

	manifest, err := v.loadManifest()
	if err != nil {
		return err
	}

	graph, err := v.loadGraph()
	if err != nil {
		return err
	}

	v.validateManifest(manifest)
	v.validateGraph(graph, manifest)
	v.validateEffectTables(graph)
	v.validateCharacters(manifest)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in module %s:\n%s", v.module, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ModuleValidator) loadManifest() (*engine.Manifest, error) {
	key := "modules/" + v.module + "/module"
	if !v.store.Exists(key) {
		return nil, fmt.Errorf("module manifest %s.json not found", key)
	}

	var manifest engine.Manifest
	if err := v.store.LoadInto(key, &manifest); err != nil {
		return nil, fmt.Errorf("failed to load module manifest: %w", err)
	}
	return &manifest, nil
}

func (v *ModuleValidator) loadGraph() (*narrative.Graph, error) {
	key := "modules/" + v.module + "/graph"
	if !v.store.Exists(key) {
		return nil, fmt.Errorf("module graph %s.json not found", key)
	}

	doc, err := v.store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load module graph: %w", err)
	}

	var graph narrative.Graph
	decoder := json.NewDecoder(strings.NewReader(string(doc)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&graph); err != nil {
		return nil, fmt.Errorf("graph failed strict JSON unmarshaling: %w", err)
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("graph is structurally invalid: %w", err)
	}
	return &graph, nil
}

func (v *ModuleValidator) validateManifest(manifest *engine.Manifest) {
	if manifest.Name != v.module {
		v.addError(fmt.Sprintf("manifest name '%s' does not match module directory '%s'", manifest.Name, v.module))
	}
	for _, id := range manifest.Factions {
		v.validateIDFormat("faction", id)
	}
	for _, id := range manifest.Traits {
		v.validateIDFormat("trait", id)
	}
	for _, id := range manifest.Characters {
		v.validateIDFormat("character", id)
	}
}

func (v *ModuleValidator) validateGraph(graph *narrative.Graph, manifest *engine.Manifest) {
	known := make(map[string]bool, len(manifest.Characters))
	for _, id := range manifest.Characters {
		known[id] = true
	}

	for nodeID, node := range graph.Nodes {
		v.validateIDFormat("node ID", nodeID)
		for _, c := range node.Choices {
			v.validateIDFormat("choice ID", c.ID)
		}
		if node.AIDialogue != nil {
			if !known[node.AIDialogue.CharacterID] {
				v.addError(fmt.Sprintf("node '%s' offers dialogue with '%s', which is not declared in the manifest", nodeID, node.AIDialogue.CharacterID))
			}
		}
	}
}

func (v *ModuleValidator) validateEffectTables(graph *narrative.Graph) {
	for nodeID, node := range graph.Nodes {
		key := "modules/" + v.module + "/diplomacy/" + nodeID
		if !v.store.Exists(key) {
			continue
		}

		var table diplomacy.EffectTable
		if err := v.store.LoadInto(key, &table); err != nil {
			v.addError(fmt.Sprintf("effect table for '%s' is unreadable: %v", nodeID, err))
			continue
		}

		choiceIDs := make(map[string]bool, len(node.Choices))
		for _, c := range node.Choices {
			choiceIDs[c.ID] = true
		}
		for _, entry := range table.Choices {
			if !choiceIDs[entry.ID] {
				v.addError(fmt.Sprintf("effect table for '%s' names choice '%s', which the node does not offer", nodeID, entry.ID))
			}
			if entry.Effects == nil {
				v.addError(fmt.Sprintf("effect table for '%s' choice '%s' has no effects", nodeID, entry.ID))
			}
		}
		for i, rule := range table.AIRules {
			if len(rule.Condition) == 0 {
				v.addError(fmt.Sprintf("effect table for '%s' rule %d has an empty condition and can never match", nodeID, i))
			}
			if rule.Effects == nil {
				v.addError(fmt.Sprintf("effect table for '%s' rule %d has no effects", nodeID, i))
			}
		}
	}
}

func (v *ModuleValidator) validateCharacters(manifest *engine.Manifest) {
	for _, id := range manifest.Characters {
		if !v.store.Exists("characters/" + id) {
			v.addError(fmt.Sprintf("character '%s' has no base record; free-text dialogue with them will be disabled", id))
			continue
		}
		if v.store.Exists("personas/" + id) {
			var rec struct {
				Persona *struct {
					SceneScope []string `json:"scene_scope"`
				} `json:"persona"`
			}
			if err := v.store.LoadInto("personas/"+id, &rec); err != nil {
				v.addError(fmt.Sprintf("persona record for '%s' is unreadable: %v", id, err))
				continue
			}
			if rec.Persona != nil && len(rec.Persona.SceneScope) == 0 {
				v.addError(fmt.Sprintf("persona for '%s' declares no scene scope; dialogue will be refused everywhere", id))
			}
		}
	}
}

func (v *ModuleValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ModuleValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
