package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolSchema describes one tool's declared interface for the purposes of
// graph-version fingerprinting: its name, human-readable description, and
// JSON Schema for the tool's input.
type ToolSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// BuildGraphVersion fingerprints an agent's graph structure (its node and
// edge lists) plus its declared tool schema set, per spec step 2 of
// capture's extraction pipeline ("hash of the graph's node set and edge
// list, plus a combined hash of each tool's declared JSON schema +
// description"). Every tool's Schema is compiled as a JSON Schema document
// before hashing, so a malformed schema is rejected here rather than
// silently fingerprinted and carried into a sealed artifact.
func BuildGraphVersion(nodes, edges []string, tools []ToolSchema) (*GraphVersion, error) {
	graphHash, err := hashNodesAndEdges(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("artifact: build graph version: %w", err)
	}

	sorted := append([]ToolSchema(nil), tools...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	toolVersions := make([]ToolSchemaVersion, 0, len(sorted))
	var combined bytes.Buffer
	for _, t := range sorted {
		if err := compileSchema(t.Name, t.Schema); err != nil {
			return nil, fmt.Errorf("artifact: build graph version: %w", err)
		}
		schemaHash, err := Hash(struct {
			Description string          `json:"description"`
			Schema      json.RawMessage `json:"schema"`
		}{t.Description, t.Schema})
		if err != nil {
			return nil, fmt.Errorf("artifact: build graph version: hash tool %q: %w", t.Name, err)
		}
		toolVersions = append(toolVersions, ToolSchemaVersion{Name: t.Name, SchemaHash: schemaHash})
		combined.WriteString(t.Name)
		combined.WriteByte(0x1F)
		combined.WriteString(schemaHash)
		combined.WriteByte(0x1E)
	}

	return &GraphVersion{
		GraphHash:      graphHash,
		ToolSchemaHash: HashBytes(combined.Bytes()),
		Tools:          toolVersions,
	}, nil
}

func hashNodesAndEdges(nodes, edges []string) (string, error) {
	return Hash(struct {
		Nodes []string `json:"nodes"`
		Edges []string `json:"edges"`
	}{nodes, edges})
}

// compileSchema validates that raw is a well-formed JSON Schema document,
// independent of the tool's actual argument shapes.
func compileSchema(toolName string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("tool %q: empty schema", toolName)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("tool %q: schema is not valid JSON: %w", toolName, err)
	}
	c := jsonschema.NewCompiler()
	const resourceName = "tool-schema.json"
	if err := c.AddResource(resourceName, doc); err != nil {
		return fmt.Errorf("tool %q: %w", toolName, err)
	}
	if _, err := c.Compile(resourceName); err != nil {
		return fmt.Errorf("tool %q: invalid schema: %w", toolName, err)
	}
	return nil
}
