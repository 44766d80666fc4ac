package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	droverrors "github.com/droverproject/drover/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	nodeNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9.-]*[a-z0-9])?$`)
	planNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("node_name", func(fl validator.FieldLevel) bool {
			return nodeNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("plan_name", func(fl validator.FieldLevel) bool {
			return planNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// deployment description.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return droverrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	nodeIndex := make(map[string]struct{}, len(cfg.Nodes))
	for i, node := range cfg.Nodes {
		if _, exists := nodeIndex[node.Name]; exists {
			return droverrors.NewValidationError(fmt.Sprintf("nodes[%d].name", i), fmt.Sprintf("duplicate node %q", node.Name), nil)
		}
		nodeIndex[node.Name] = struct{}{}
	}

	machineIndex := make(map[string]string, len(cfg.Nodes))
	for i, node := range cfg.Nodes {
		if other, exists := machineIndex[node.MachineID]; exists {
			return droverrors.NewValidationError(fmt.Sprintf("nodes[%d].machine_id", i), fmt.Sprintf("machine %q already assigned to node %q", node.MachineID, other), nil)
		}
		machineIndex[node.MachineID] = node.Name
	}

	planIndex := make(map[string]struct{}, len(cfg.Plans))
	for i, plan := range cfg.Plans {
		if _, exists := planIndex[plan.Name]; exists {
			return droverrors.NewValidationError(fmt.Sprintf("plans[%d].name", i), fmt.Sprintf("duplicate plan %q", plan.Name), nil)
		}
		planIndex[plan.Name] = struct{}{}
	}

	poolIndex := make(map[string]struct{}, len(cfg.LoadBalancer.Pools))
	for i, pool := range cfg.LoadBalancer.Pools {
		if _, exists := poolIndex[pool.Name]; exists {
			return droverrors.NewValidationError(fmt.Sprintf("loadbalancer.pools[%d].name", i), fmt.Sprintf("duplicate pool %q", pool.Name), nil)
		}
		poolIndex[pool.Name] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return droverrors.NewValidationError(field, msg, err)
	}

	return droverrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
