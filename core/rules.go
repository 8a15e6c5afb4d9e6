package core

import "github.com/signalsfoundry/satnet-designer/model"

// IsConnectionAllowed reports whether an edge may originate at a node of
// type from and terminate at a node of type to. Unknown types are never
// allowed.
func IsConnectionAllowed(from, to model.NodeType) bool {
	switch from {
	case model.NodeTypeAS:
		return to == model.NodeTypeSC || to == model.NodeTypeHAPS || to == model.NodeTypeES
	case model.NodeTypeSC, model.NodeTypeHAPS:
		return to == model.NodeTypeSC || to == model.NodeTypeHAPS || to == model.NodeTypeES || to == model.NodeTypeAS
	case model.NodeTypeES:
		return to == model.NodeTypeSC || to == model.NodeTypeHAPS || to == model.NodeTypeES || to == model.NodeTypeSSOP
	case model.NodeTypeSSOP:
		return to == model.NodeTypeES
	}
	return false
}

// AllowedTargets returns the node types that from may connect to, in
// model.NodeTypes order.
func AllowedTargets(from model.NodeType) []model.NodeType {
	var out []model.NodeType
	for _, t := range model.NodeTypes {
		if IsConnectionAllowed(from, t) {
			out = append(out, t)
		}
	}
	return out
}
