package casefile

import "strings"

// fieldChoices lists the fixed values offered for well-known columns, keyed
// by the lower-cased header.
var fieldChoices = map[string][]string{
	"visualize":         {"Yes", "No"},
	"evidencecollected": {"Yes", "No"},
	"indicatortype": {
		"IPAddress", "UserName", "FileName", "FilePath", "UserAgent", "DomainName", "JA3-JA3S",
		"URL", "Mutex", "Other-Strings", "EmailAddress", "RegistryPath", "GPO",
	},
	"accounttype": {
		"Normal User Account - Local", "Normal User Account - On-Prem AD", "Normal User Account - Azure",
		"Service Account", "Domain Admin", "Global Admin - Azure", "Service Principle - Azure",
		"Computer Account", "Local Administrator",
	},
	"systemtype": {
		"Attacker-Machine", "Server-Generic", "Server-Application", "Server-Web", "Server-DC",
		"Server-Terminal SRV", "Server-Database", "Gateway-Generic", "Gateway-Firewall", "Gateway-VPN",
		"Gateway-Router", "Gateway-Switch", "Gateway-Email", "Gateway-Web Proxy", "Gateway-DNS",
		"Desktop", "Mobile", "OT Device", "UnKnown",
	},
	"location":      {"On-Prem", "Unknown", "Cloud-Generic", "Cloud-Azure", "Cloud-AWS", "Cloud-GCP"},
	"currentstatus": {"Completed", "In Progress", "On Hold", "Not Started"},
	"priority":      {"High", "Medium", "Low"},
}

// Choices returns the fixed values for a column header, or nil when the
// column is free text.
func Choices(header string) []string {
	return fieldChoices[strings.ToLower(strings.TrimSpace(header))]
}
