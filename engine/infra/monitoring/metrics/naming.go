package metrics

import "strings"

// Prefix namespaces every metric exported by the service.
const Prefix = "helpdesk_"

// MetricName prefixes name with the service namespace unless it already has it.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem builds helpdesk_<subsystem>_<name>.
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	if subsystem == "" {
		return MetricName(name)
	}
	if name == "" {
		return Prefix + subsystem
	}
	return Prefix + subsystem + "_" + name
}
