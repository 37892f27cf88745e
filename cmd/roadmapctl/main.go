// Package main is the entry point for roadmapctl, the RoadmapAI deployment
// tool. It bootstraps a target environment (static assets, schema migrations,
// superuser provisioning, catalog seeding), audits deploy configuration, and
// serves a small deploy-status HTTP API.
package main

func main() {
	Execute()
}
