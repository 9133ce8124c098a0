package inventory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of the infrastructure declaration.
// It enumerates capacity specs and workspace assignments keyed by
// identifiers conforming to the naming grammar.
type Document struct {
	SolutionVersion string          `yaml:"solution_version"`
	Capacities      []CapacitySpec  `yaml:"capacities"`
	Workspaces      []WorkspaceSpec `yaml:"workspaces"`
}

// CapacitySpec is one declared capacity.
type CapacitySpec struct {
	ID          string `yaml:"id"`
	Environment string `yaml:"environment"`
	Class       string `yaml:"class"`
	Policy      string `yaml:"policy"`
	Schedule    string `yaml:"schedule,omitempty"`
}

// WorkspaceSpec is one declared workspace assignment.
type WorkspaceSpec struct {
	ID          string `yaml:"id"`
	Environment string `yaml:"environment"`
	Content     string `yaml:"content"`
	Capacity    string `yaml:"capacity"`
}

// versionPlaceholder is replaced with the document's solution_version
// before parsing, so identifiers can be written once per template.
const versionPlaceholder = "{{SOLUTION_VERSION}}"

// LoadDocument reads and parses a declaration document. Environment
// variables referenced as ${VAR} and the solution version placeholder
// are substituted before YAML parsing.
func LoadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read inventory document: %w", err)
	}
	return parseDocument(raw)
}

func parseDocument(raw []byte) (Document, error) {
	// First pass only extracts solution_version for placeholder expansion.
	var head struct {
		SolutionVersion string `yaml:"solution_version"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Document{}, fmt.Errorf("parse inventory document: %w", err)
	}
	version := head.SolutionVersion
	if version == "" {
		version = "AV01"
	}

	content := strings.ReplaceAll(string(raw), versionPlaceholder, version)
	content = os.Expand(content, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})

	var doc Document
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return Document{}, fmt.Errorf("parse inventory document: %w", err)
	}
	doc.SolutionVersion = version
	return doc, nil
}

// Build populates a fresh registry from a document. A malformed record is
// fatal to that record only: it is skipped and reported, and loading
// continues, so one bad entry cannot take the whole topology down.
func Build(doc Document, log *slog.Logger) (*Registry, []error) {
	reg := NewRegistry(log)
	var errs []error

	for _, spec := range doc.Capacities {
		c, err := capacityFromSpec(spec)
		if err != nil {
			log.Error("skipping capacity record", "capacity_id", spec.ID, "error", err)
			errs = append(errs, fmt.Errorf("capacity %s: %w", spec.ID, err))
			continue
		}
		if err := reg.RegisterCapacity(c); err != nil {
			log.Error("skipping capacity record", "capacity_id", spec.ID, "error", err)
			errs = append(errs, fmt.Errorf("capacity %s: %w", spec.ID, err))
		}
	}

	for _, spec := range doc.Workspaces {
		ws, err := workspaceFromSpec(spec)
		if err != nil {
			log.Error("skipping workspace record", "workspace_id", spec.ID, "error", err)
			errs = append(errs, fmt.Errorf("workspace %s: %w", spec.ID, err))
			continue
		}
		if _, err := reg.AssignWorkspace(ws); err != nil {
			log.Error("skipping workspace record", "workspace_id", spec.ID, "error", err)
			errs = append(errs, fmt.Errorf("workspace %s: %w", spec.ID, err))
		}
	}

	return reg, errs
}

func capacityFromSpec(spec CapacitySpec) (Capacity, error) {
	env, err := AsEnvironment(spec.Environment)
	if err != nil {
		return Capacity{}, err
	}
	class, err := AsWorkloadClass(spec.Class)
	if err != nil {
		return Capacity{}, err
	}
	policy, err := AsPolicy(spec.Policy)
	if err != nil {
		return Capacity{}, err
	}
	// automation only ever starts pipeline runs, and those run on
	// engineering capacities
	if policy.Automated() && class != ClassEngineering {
		return Capacity{}, fmt.Errorf("policy %s is only valid for engineering capacities", policy)
	}
	if policy == PolicyScheduled && spec.Schedule == "" {
		return Capacity{}, fmt.Errorf("scheduled capacity requires a schedule")
	}
	if policy != PolicyScheduled && spec.Schedule != "" {
		return Capacity{}, fmt.Errorf("schedule is only valid under the scheduled policy")
	}
	return Capacity{
		ID:          spec.ID,
		Environment: env,
		Class:       class,
		Policy:      policy,
		Schedule:    spec.Schedule,
	}, nil
}

func workspaceFromSpec(spec WorkspaceSpec) (Workspace, error) {
	env, err := AsEnvironment(spec.Environment)
	if err != nil {
		return Workspace{}, err
	}
	content, err := AsContentClass(spec.Content)
	if err != nil {
		return Workspace{}, err
	}
	if spec.Capacity == "" {
		return Workspace{}, fmt.Errorf("workspace requires a capacity assignment")
	}
	return Workspace{
		ID:          spec.ID,
		Environment: env,
		Content:     content,
		CapacityID:  spec.Capacity,
	}, nil
}
