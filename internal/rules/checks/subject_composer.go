package checks

import "conformcheck/internal/rules"

func subjectComposerRules() []rules.Rule {
	return []rules.Rule{
		required(rules.Rule{ID: "subject-composer-json", Description: "Forum composer.json exists", Kind: rules.KindFileExists, Scope: rules.ScopeSubject, Target: "composer.json"}),
		required(rules.Rule{ID: "subject-composer-name", Description: "Forum composer.json declares a package name", Kind: rules.KindJSONKeyPresent, Scope: rules.ScopeSubject, Target: "composer.json", KeyPath: []string{"name"}}),
		required(rules.Rule{ID: "subject-composer-require", Description: "Forum composer.json has a require section", Kind: rules.KindJSONKeyPresent, Scope: rules.ScopeSubject, Target: "composer.json", KeyPath: []string{"require"}}),
		optional(rules.Rule{ID: "subject-composer-require-php", Description: "Forum composer.json constrains the PHP version", Kind: rules.KindJSONKeyPresent, Scope: rules.ScopeSubject, Target: "composer.json", KeyPath: []string{"require", "php"}}),
	}
}
