package constants

// Logical resources mirrored from the upstream field-service API.
// Each resource has its own table and its own sync_state row.
const (
	ResourceOrders      = "orders"
	ResourceEquipments  = "equipments"
	ResourceTechnicians = "technicians"
)

// AllResources lists resources in the order the orchestrator syncs them.
var AllResources = []string{
	ResourceOrders,
	ResourceEquipments,
	ResourceTechnicians,
}

// ResourceTables maps a resource name to its local table. Table names are
// resolved through this map only, never interpolated from caller input.
var ResourceTables = map[string]string{
	ResourceOrders:      "orders",
	ResourceEquipments:  "equipments",
	ResourceTechnicians: "technicians",
}

// IsKnownResource reports whether the sync engine mirrors the given resource.
func IsKnownResource(resource string) bool {
	_, ok := ResourceTables[resource]
	return ok
}
