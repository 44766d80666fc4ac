package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied to optional fields after parsing.
const (
	DefaultEngineBinary    = "terraform"
	DefaultAuditTemplate   = "host-maintenance"
	DefaultBalanceTemplate = "workload-balancing"
)

// Config is the root deployment description drover operates on.
type Config struct {
	// Name identifies the deployment.
	Name string `yaml:"name" validate:"required"`

	// Model is the workload-orchestrator model holding the applications.
	Model string `yaml:"model" validate:"required"`

	// Kubeconfig points at the substrate cluster credentials. Empty means
	// the command's --kubeconfig flag decides.
	Kubeconfig string `yaml:"kubeconfig"`

	// Namespace is where the cloud's services live. Defaults to the model.
	Namespace string `yaml:"namespace"`

	// Workdir is the working directory for plan bundles, variables and
	// engine state. Defaults to the current directory.
	Workdir string `yaml:"workdir"`

	Engine       Engine       `yaml:"engine"`
	Nodes        []Node       `yaml:"nodes" validate:"dive"`
	Plans        []Plan       `yaml:"plans" validate:"dive"`
	Timeouts     Timeouts     `yaml:"timeouts"`
	Maintenance  Maintenance  `yaml:"maintenance"`
	LoadBalancer LoadBalancer `yaml:"loadbalancer"`
}

// Engine selects the IaC binary driving the plans.
type Engine struct {
	Binary string `yaml:"binary"`
}

// Node is one machine in the cluster inventory.
type Node struct {
	Name      string   `yaml:"name" validate:"required,node_name"`
	MachineID string   `yaml:"machine_id" validate:"required"`
	Roles     []string `yaml:"roles,omitempty"`
}

// HasRole reports whether the node carries the given role.
func (n Node) HasRole(role string) bool {
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Plan names an IaC plan bundle and where to fetch it from.
type Plan struct {
	Name   string `yaml:"name" validate:"required,plan_name"`
	Source string `yaml:"source" validate:"required"`
	Ref    string `yaml:"ref,omitempty"`
}

// Timeouts overrides the built-in wait budgets. Zero means default.
type Timeouts struct {
	App     Duration `yaml:"app,omitempty"`
	Unit    Duration `yaml:"unit,omitempty"`
	Destroy Duration `yaml:"destroy,omitempty"`
}

// Maintenance configures the optimization-service workflow.
type Maintenance struct {
	AuditTemplate   string `yaml:"audit_template,omitempty"`
	BalanceTemplate string `yaml:"balance_template,omitempty"`
}

// LoadBalancer configures address pools and the services pinned to them.
type LoadBalancer struct {
	Services []string `yaml:"services,omitempty"`
	Pools    []Pool   `yaml:"pools,omitempty" validate:"dive"`
}

// Pool is one load-balancer address pool.
type Pool struct {
	Name      string   `yaml:"name" validate:"required"`
	Addresses []string `yaml:"addresses" validate:"required,min=1"`
}

// Duration parses YAML scalars like "15m" or "900s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Or returns the wrapped duration, or fallback when unset.
func (d Duration) Or(fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}
	return time.Duration(d)
}

// Node returns the inventory entry for the named node.
func (c *Config) Node(name string) (*Node, bool) {
	for i := range c.Nodes {
		if c.Nodes[i].Name == name {
			return &c.Nodes[i], true
		}
	}
	return nil, false
}

// MachineIDs resolves node names to machine IDs, in input order. Unknown
// nodes produce an error naming the first one.
func (c *Config) MachineIDs(nodes []string) ([]string, error) {
	ids := make([]string, 0, len(nodes))
	for _, name := range nodes {
		node, ok := c.Node(name)
		if !ok {
			return nil, fmt.Errorf("node %q not in inventory", name)
		}
		ids = append(ids, node.MachineID)
	}
	return ids, nil
}

// NodesWithRole returns the names of inventory nodes carrying a role.
func (c *Config) NodesWithRole(role string) []string {
	var names []string
	for _, node := range c.Nodes {
		if node.HasRole(role) {
			names = append(names, node.Name)
		}
	}
	return names
}

func (c *Config) applyDefaults() {
	if c.Engine.Binary == "" {
		c.Engine.Binary = DefaultEngineBinary
	}
	if c.Namespace == "" {
		c.Namespace = c.Model
	}
	if c.Workdir == "" {
		c.Workdir = "."
	}
	if c.Maintenance.AuditTemplate == "" {
		c.Maintenance.AuditTemplate = DefaultAuditTemplate
	}
	if c.Maintenance.BalanceTemplate == "" {
		c.Maintenance.BalanceTemplate = DefaultBalanceTemplate
	}
}
