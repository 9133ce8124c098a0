// Package inventory holds the declared capacity topology: which capacities
// exist, how they are automated, and which workspaces they back.
package inventory

import (
	"fmt"
	"time"

	"capplane/internal/naming"
)

// Environment is the deployment environment a resource lives in.
type Environment string

const (
	EnvDev  Environment = "DEV"
	EnvTest Environment = "TEST"
	EnvProd Environment = "PROD"
)

// AsEnvironment validates a raw environment string.
func AsEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvDev, EnvTest, EnvProd:
		return Environment(s), nil
	}
	return "", fmt.Errorf("%q is not an environment", s)
}

// WorkloadClass separates engineering capacities (pipelines, notebooks)
// from consumption capacities (reports, dashboards).
type WorkloadClass string

const (
	ClassEngineering WorkloadClass = "engineering"
	ClassConsumption WorkloadClass = "consumption"
)

// AsWorkloadClass validates a raw workload class string.
func AsWorkloadClass(s string) (WorkloadClass, error) {
	switch WorkloadClass(s) {
	case ClassEngineering, ClassConsumption:
		return WorkloadClass(s), nil
	}
	return "", fmt.Errorf("%q is not a workload class", s)
}

// Policy is the automation mode driving a capacity's lifecycle.
type Policy string

const (
	// PolicyScheduled capacities are activated by cron triggers.
	PolicyScheduled Policy = "scheduled"

	// PolicyCIGated capacities are activated when a change is merged
	// into their mapped branch.
	PolicyCIGated Policy = "ci-gated"

	// PolicyManual capacities are only ever driven by an operator.
	PolicyManual Policy = "manual"
)

// AsPolicy validates a raw policy string.
func AsPolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyScheduled, PolicyCIGated, PolicyManual:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%q is not an automation policy", s)
}

// Automated reports whether the policy permits machine-driven transitions.
func (p Policy) Automated() bool {
	return p == PolicyScheduled || p == PolicyCIGated
}

// CapacityKey is the uniqueness key for capacities: exactly one capacity
// exists per (architecture version, environment, workload class).
type CapacityKey struct {
	Version     int
	Environment Environment
	Class       WorkloadClass
}

func (k CapacityKey) String() string {
	return fmt.Sprintf("v%02d/%s/%s", k.Version, k.Environment, k.Class)
}

// Capacity is one metered compute unit.
type Capacity struct {
	ID          string
	Identifier  naming.Identifier
	Environment Environment
	Class       WorkloadClass
	Policy      Policy

	// Schedule is the cron cadence expression. Only meaningful for
	// PolicyScheduled capacities.
	Schedule string
}

// Key returns the registry uniqueness key for the capacity.
func (c Capacity) Key() CapacityKey {
	return CapacityKey{
		Version:     c.Identifier.ArchitectureVersion(),
		Environment: c.Environment,
		Class:       c.Class,
	}
}

// ContentClass is the kind of content a workspace holds.
type ContentClass string

const (
	ContentProcessing  ContentClass = "processing"
	ContentDataStore   ContentClass = "data-store"
	ContentConsumption ContentClass = "consumption"
)

// AsContentClass validates a raw content class string.
func AsContentClass(s string) (ContentClass, error) {
	switch ContentClass(s) {
	case ContentProcessing, ContentDataStore, ContentConsumption:
		return ContentClass(s), nil
	}
	return "", fmt.Errorf("%q is not a content class", s)
}

// Workspace is one logical content area assigned to exactly one capacity.
type Workspace struct {
	ID          string
	Identifier  naming.Identifier
	Environment Environment
	Content     ContentClass
	CapacityID  string
}

// AssignmentAudit records a workspace reassignment, including the capacity
// it moved away from. Reassignments are explicit mutations, never side
// effects, so every one of them produces an audit record.
type AssignmentAudit struct {
	WorkspaceID string
	OldCapacity string
	NewCapacity string
	At          time.Time
}
