package checks

import "conformcheck/internal/rules"

const (
	phpOpenTag = "<?php"
	phpShebang = "#!/usr/bin/env php"
)

func subjectScriptRules() []rules.Rule {
	php := func(id, target, desc string) rules.Rule {
		return optional(rules.Rule{
			ID:          id,
			Description: desc,
			Kind:        rules.KindStringContains,
			Scope:       rules.ScopeSubject,
			Target:      target,
			Substring:   phpOpenTag,
		})
	}

	return []rules.Rule{
		php("subject-public-index", "public/index.php", "Forum entry point is a PHP file"),
		php("subject-extend", "extend.php", "Forum extend.php is a PHP file"),
		php("subject-config", "config.php", "Forum config.php is a PHP file"),
		optional(rules.Rule{
			ID:          "subject-cli",
			Description: "Forum CLI starts with a PHP shebang",
			Kind:        rules.KindStringContains,
			Scope:       rules.ScopeSubject,
			Target:      "flarum",
			Substring:   phpShebang,
		}),
	}
}
