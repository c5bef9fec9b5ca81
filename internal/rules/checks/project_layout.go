package checks

import "conformcheck/internal/rules"

// projectLayoutRules cover the CI/CD repository wrapping the forum.
func projectLayoutRules() []rules.Rule {
	dir := func(id, target, desc string) rules.Rule {
		return required(rules.Rule{ID: id, Description: desc, Kind: rules.KindDirExists, Scope: rules.ScopeRoot, Target: target})
	}
	file := func(id, target, desc string) rules.Rule {
		return required(rules.Rule{ID: id, Description: desc, Kind: rules.KindFileExists, Scope: rules.ScopeRoot, Target: target})
	}

	return []rules.Rule{
		dir("root-docker-dir", "docker", "Docker directory exists"),
		dir("root-github-dir", ".github", "GitHub Actions directory exists"),
		dir("root-tests-dir", "tests", "Tests directory exists"),
		dir("root-scripts-dir", "scripts", "Scripts directory exists"),
		file("root-composer-json", "composer.json", "Root composer.json exists"),
		file("root-gitignore", ".gitignore", "Root .gitignore exists"),
		file("root-phpunit-xml", "phpunit.xml", "PHPUnit configuration exists"),
		file("root-env-example", ".env.example", "Environment template exists at the root"),
		file("root-vendor-autoload", "vendor/autoload.php", "Root vendor autoloader is installed"),
		required(rules.Rule{
			ID:           "root-phpunit-bin",
			Description:  "PHPUnit executable is installed",
			Kind:         rules.KindFileExists,
			Scope:        rules.ScopeRoot,
			Target:       "vendor/bin/phpunit",
			Alternatives: []string{"vendor/bin/phpunit.bat"},
		}),
	}
}
