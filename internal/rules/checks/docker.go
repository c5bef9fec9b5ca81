package checks

import "conformcheck/internal/rules"

func dockerRules() []rules.Rule {
	return []rules.Rule{
		required(rules.Rule{
			ID:          "docker-dockerfile",
			Description: "Dockerfile exists",
			Kind:        rules.KindFileExists,
			Scope:       rules.ScopeRoot,
			Target:      "docker/Dockerfile",
		}),
		// Compose v2 also picks up the .yaml spelling.
		required(rules.Rule{
			ID:           "docker-compose-file",
			Description:  "Docker Compose file exists",
			Kind:         rules.KindFileExists,
			Scope:        rules.ScopeRoot,
			Target:       "docker/docker-compose.yml",
			Alternatives: []string{"docker/docker-compose.yaml"},
		}),
		optional(rules.Rule{
			ID:           "docker-compose-services",
			Description:  "Docker Compose file defines services",
			Kind:         rules.KindYAMLKeyPresent,
			Scope:        rules.ScopeRoot,
			Target:       "docker/docker-compose.yml",
			Alternatives: []string{"docker/docker-compose.yaml"},
			KeyPath:      []string{"services"},
		}),
	}
}
