// Package manifest reads import manifests and watches them for changes.
//
// A manifest lists import items under "items", with optional
// manifest-wide defaults for site and destination. TOML, YAML and JSON
// encodings share one schema:
//
//	site = "demo"
//
//	[[items]]
//	key = "report"
//	name = "report.xml"
//	type = "D:cm:content,P:cm:titled"
//	content_file = "files/report.xml"
//
//	[items.properties]
//	"cm:title" = "Quarterly report"
//
//	[items.associations]
//	"cm:references" = "@summary"
package manifest
