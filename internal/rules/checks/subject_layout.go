package checks

import "conformcheck/internal/rules"

// storageDirs are the runtime directories Flarum writes below storage/.
var storageDirs = []string{"logs", "cache", "sessions", "views", "tmp"}

func subjectLayoutRules() []rules.Rule {
	out := []rules.Rule{
		required(rules.Rule{ID: "subject-dir", Description: "Forum source directory exists", Kind: rules.KindDirExists, Scope: rules.ScopeSubject, Target: "."}),
		required(rules.Rule{ID: "subject-public-dir", Description: "Forum public directory exists", Kind: rules.KindDirExists, Scope: rules.ScopeSubject, Target: "public"}),
		required(rules.Rule{ID: "subject-storage-dir", Description: "Forum storage directory exists", Kind: rules.KindDirExists, Scope: rules.ScopeSubject, Target: "storage"}),
	}
	for _, d := range storageDirs {
		out = append(out, optional(rules.Rule{
			ID:          "subject-storage-" + d,
			Description: "Forum storage/" + d + " directory exists",
			Kind:        rules.KindDirExists,
			Scope:       rules.ScopeSubject,
			Target:      "storage/" + d,
		}))
	}
	out = append(out,
		optional(rules.Rule{ID: "subject-public-assets", Description: "Forum public assets directory exists", Kind: rules.KindDirExists, Scope: rules.ScopeSubject, Target: "public/assets"}),
		optional(rules.Rule{ID: "subject-public-htaccess", Description: "Forum public .htaccess exists", Kind: rules.KindFileExists, Scope: rules.ScopeSubject, Target: "public/.htaccess"}),
		optional(rules.Rule{ID: "subject-env-example", Description: "Forum environment template exists", Kind: rules.KindFileExists, Scope: rules.ScopeSubject, Target: ".env.example"}),
		optional(rules.Rule{ID: "subject-vendor-autoload", Description: "Forum vendor autoloader is installed", Kind: rules.KindFileExists, Scope: rules.ScopeSubject, Target: "vendor/autoload.php"}),
	)
	return out
}
