package equivalency

import (
	"github.com/planvisor/pkg/models"
)

// DecodeLegacyFeatures turns a custom plan's stored feature-flag JSON into
// the canonical LegacyPlanFeatures shape. Decoding happens once, here, at
// the system boundary: every scoring function downstream receives a fully
// populated value and never touches the raw map. Missing or malformed
// fields take explicit defaults (limits default to unlimited, feature
// flags to false, support to standard).
func DecodeLegacyFeatures(flags map[string]interface{}) models.LegacyPlanFeatures {
	return models.LegacyPlanFeatures{
		MaxUsers:            decodeInt(flags, 0, "max_users", "maxUsers", "userLimit"),
		StorageGB:           decodeInt(flags, 0, "storage_gb", "storageGb", "storageLimit"),
		GanttCharts:         decodeBool(flags, "gantt_charts", "ganttCharts"),
		TimeTracking:        decodeBool(flags, "time_tracking", "timeTracking"),
		CustomFields:        decodeBool(flags, "custom_fields", "customFields"),
		AdvancedReporting:   decodeBool(flags, "advanced_reporting", "advancedReporting", "reporting"),
		Integrations:        decodeBool(flags, "integrations"),
		AdvancedPermissions: decodeBool(flags, "advanced_permissions", "advancedPermissions"),
		ClientPortal:        decodeBool(flags, "client_portal", "clientPortal"),
		ResourceManagement:  decodeBool(flags, "resource_management", "resourceManagement"),
		APIAccess:           decodeBool(flags, "api_access", "apiAccess"),
		Support:             decodeSupport(flags),
	}
}

// decodeInt reads the first present alias as an integer. Stored JSON
// numbers arrive as float64.
func decodeInt(flags map[string]interface{}, def int, keys ...string) int {
	for _, k := range keys {
		v, ok := flags[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n >= 0 {
				return int(n)
			}
		case int:
			if n >= 0 {
				return n
			}
		}
	}
	return def
}

func decodeBool(flags map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if v, ok := flags[k]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	return false
}

func decodeSupport(flags map[string]interface{}) models.SupportTier {
	for _, k := range []string{"support", "support_tier", "supportTier"} {
		v, ok := flags[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			switch s {
			case "community":
				return models.SupportCommunity
			case "standard":
				return models.SupportStandard
			case "priority":
				return models.SupportPriority
			case "dedicated", "enterprise":
				return models.SupportDedicated
			}
		}
	}
	return models.SupportStandard
}
