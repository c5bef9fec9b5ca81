package checks

import "conformcheck/internal/rules"

var (
	// requiredExtensions must be loaded for the pipeline's own tooling.
	requiredExtensions = []string{"json", "mbstring", "curl"}
	// forumExtensions are needed by the forum but depend on the CI image.
	forumExtensions = []string{"openssl", "pdo", "tokenizer", "xml", "ctype", "zip"}
)

func runtimeRules() []rules.Rule {
	out := []rules.Rule{
		required(rules.Rule{ID: "php-version", Description: "PHP runtime is 8.0 or newer", Kind: rules.KindVersionAtLeast, Minimum: "8.0"}),
		required(rules.Rule{ID: "php-version-forum", Description: "PHP runtime meets the forum minimum of 7.4", Kind: rules.KindVersionAtLeast, Minimum: "7.4"}),
	}
	for _, ext := range requiredExtensions {
		out = append(out, required(extensionRule(ext)))
	}
	for _, ext := range forumExtensions {
		out = append(out, optional(extensionRule(ext)))
	}
	return out
}

func extensionRule(name string) rules.Rule {
	return rules.Rule{
		ID:          "php-ext-" + name,
		Description: "PHP extension " + name + " is loaded",
		Kind:        rules.KindExtensionLoaded,
		Target:      name,
	}
}
