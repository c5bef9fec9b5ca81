package checks

import "conformcheck/internal/rules"

const projectPackageName = "flarum-cicd/pipeline"

func projectComposerRules() []rules.Rule {
	key := func(id, desc string, path ...string) rules.Rule {
		return required(rules.Rule{
			ID:          id,
			Description: desc,
			Kind:        rules.KindJSONKeyPresent,
			Scope:       rules.ScopeRoot,
			Target:      "composer.json",
			KeyPath:     path,
		})
	}

	name := key("root-composer-name", "Root composer.json declares the pipeline package name", "name")
	name.Expect = projectPackageName

	return []rules.Rule{
		name,
		key("root-composer-require", "Root composer.json has a require section", "require"),
		key("root-composer-require-dev", "Root composer.json has a require-dev section", "require-dev"),
		key("root-composer-scripts", "Root composer.json has a scripts section", "scripts"),
		key("root-composer-require-php", "Root composer.json constrains the PHP version", "require", "php"),
		key("root-composer-require-phpunit", "Root composer.json requires phpunit/phpunit for development", "require-dev", "phpunit/phpunit"),
	}
}
