package engine

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conformcheck/internal/data"
	"conformcheck/internal/rules"
)

const rootComposer = `{
  "name": "flarum-cicd/pipeline",
  "require": {"php": "^8.0"},
  "require-dev": {"phpunit/phpunit": "^9.5"},
  "scripts": {"test": "phpunit"}
}`

func testEnv(root, subject fstest.MapFS, rt data.RuntimeInfo) *data.Environment {
	return &data.Environment{
		RootPath:    "/srv/flarum",
		SubjectPath: "/srv/flarum/src",
		Root:        root,
		Subject:     subject,
		Runtime:     rt,
	}
}

func dir() *fstest.MapFile {
	return &fstest.MapFile{Mode: fs.ModeDir | 0o755}
}

func file(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func fileRule(id string, sev rules.Severity, scope rules.Scope, target string) rules.Rule {
	return rules.Rule{ID: id, Description: id, Kind: rules.KindFileExists, Severity: sev, Scope: scope, Target: target}
}

func TestEvaluate_FileExists_SeverityPolicy(t *testing.T) {
	env := testEnv(fstest.MapFS{}, fstest.MapFS{}, data.RuntimeInfo{})
	ctx := context.Background()

	res := Evaluate(ctx, fileRule("root-gitignore", rules.SeverityRequired, rules.ScopeRoot, ".gitignore"), env)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Equal(t, "file .gitignore not found", res.Message)

	res = Evaluate(ctx, fileRule("subject-env-example", rules.SeverityOptional, rules.ScopeSubject, ".env.example"), env)
	assert.Equal(t, rules.StatusSkipped, res.Status)
	assert.Equal(t, "file src/.env.example not found", res.Message)
}

func TestEvaluate_FileExists_Alternatives(t *testing.T) {
	r := fileRule("root-phpunit-bin", rules.SeverityRequired, rules.ScopeRoot, "vendor/bin/phpunit")
	r.Alternatives = []string{"vendor/bin/phpunit.bat"}

	env := testEnv(fstest.MapFS{"vendor/bin/phpunit.bat": file("@echo off")}, nil, data.RuntimeInfo{})
	res := Evaluate(context.Background(), r, env)
	assert.Equal(t, rules.StatusPass, res.Status)
	assert.Equal(t, "vendor/bin/phpunit.bat", res.Evidence["path"])

	env = testEnv(fstest.MapFS{}, nil, data.RuntimeInfo{})
	res = Evaluate(context.Background(), r, env)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Equal(t, "file vendor/bin/phpunit or vendor/bin/phpunit.bat not found", res.Message)
}

func TestEvaluate_KindMismatch(t *testing.T) {
	env := testEnv(fstest.MapFS{
		"docker":      file("not a directory"),
		"phpunit.xml": dir(),
	}, nil, data.RuntimeInfo{})

	res := Evaluate(context.Background(), rules.Rule{ID: "d", Kind: rules.KindDirExists, Severity: rules.SeverityOptional, Scope: rules.ScopeRoot, Target: "docker"}, env)
	assert.Equal(t, rules.StatusFail, res.Status, "wrong kind fails even for optional rules")
	assert.Equal(t, "docker exists but is not a directory", res.Message)

	res = Evaluate(context.Background(), fileRule("f", rules.SeverityRequired, rules.ScopeRoot, "phpunit.xml"), env)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Equal(t, "phpunit.xml exists but is not a file", res.Message)
}

func TestEvaluate_SubjectRootDirectory(t *testing.T) {
	r := rules.Rule{ID: "subject-dir", Kind: rules.KindDirExists, Severity: rules.SeverityRequired, Scope: rules.ScopeSubject, Target: "."}
	res := Evaluate(context.Background(), r, testEnv(nil, fstest.MapFS{"composer.json": file("{}")}, data.RuntimeInfo{}))
	assert.Equal(t, rules.StatusPass, res.Status)
	assert.Equal(t, "directory src exists", res.Message)
}

func TestEvaluate_StorageAbsent(t *testing.T) {
	env := testEnv(nil, fstest.MapFS{"public/index.php": file("<?php")}, data.RuntimeInfo{})
	ctx := context.Background()

	parent := Evaluate(ctx, rules.Rule{ID: "subject-storage-dir", Kind: rules.KindDirExists, Severity: rules.SeverityRequired, Scope: rules.ScopeSubject, Target: "storage"}, env)
	assert.Equal(t, rules.StatusFail, parent.Status)

	for _, d := range []string{"logs", "cache", "sessions", "views", "tmp"} {
		child := Evaluate(ctx, rules.Rule{ID: "subject-storage-" + d, Kind: rules.KindDirExists, Severity: rules.SeverityOptional, Scope: rules.ScopeSubject, Target: "storage/" + d}, env)
		assert.Equal(t, rules.StatusSkipped, child.Status, d)
	}
}

func TestEvaluate_JSONKeyPresent(t *testing.T) {
	env := testEnv(fstest.MapFS{"composer.json": file(rootComposer)}, nil, data.RuntimeInfo{})
	key := func(expect string, path ...string) rules.Rule {
		return rules.Rule{ID: "k", Kind: rules.KindJSONKeyPresent, Severity: rules.SeverityRequired, Scope: rules.ScopeRoot, Target: "composer.json", KeyPath: path, Expect: expect}
	}

	tests := []struct {
		name    string
		rule    rules.Rule
		status  rules.Status
		message string
	}{
		{name: "top-level key", rule: key("", "require"), status: rules.StatusPass, message: "key require present in composer.json"},
		{name: "nested key with slash", rule: key("", "require-dev", "phpunit/phpunit"), status: rules.StatusPass},
		{name: "expected name", rule: key("flarum-cicd/pipeline", "name"), status: rules.StatusPass, message: `key name in composer.json is "flarum-cicd/pipeline"`},
		{name: "wrong name", rule: key("acme/other", "name"), status: rules.StatusFail, message: `key name in composer.json is "flarum-cicd/pipeline", expected "acme/other"`},
		{name: "missing key", rule: key("", "autoload"), status: rules.StatusFail, message: "key autoload missing from composer.json"},
		{name: "expect on object", rule: key("x", "require"), status: rules.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(context.Background(), tt.rule, env)
			assert.Equal(t, tt.status, res.Status, res.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Message)
			}
		})
	}
}

func TestEvaluate_InvalidJSONFailsRegardlessOfSeverity(t *testing.T) {
	env := testEnv(nil, fstest.MapFS{"composer.json": file(`{"name": "flarum/flarum",`)}, data.RuntimeInfo{})
	for _, sev := range []rules.Severity{rules.SeverityRequired, rules.SeverityOptional} {
		r := rules.Rule{ID: "subject-composer-name", Kind: rules.KindJSONKeyPresent, Severity: sev, Scope: rules.ScopeSubject, Target: "composer.json", KeyPath: []string{"name"}}
		res := Evaluate(context.Background(), r, env)
		assert.Equal(t, rules.StatusFail, res.Status, string(sev))
		assert.Contains(t, res.Message, "invalid JSON in src/composer.json")
	}
}

func TestEvaluate_YAMLKeyPresent(t *testing.T) {
	env := testEnv(fstest.MapFS{
		"docker/docker-compose.yml": file("services:\n  app:\n    image: php:8.1-fpm\n"),
		"docker/broken.yml":         file("services: [unclosed\n"),
	}, nil, data.RuntimeInfo{})
	r := rules.Rule{ID: "docker-compose-services", Kind: rules.KindYAMLKeyPresent, Severity: rules.SeverityOptional, Scope: rules.ScopeRoot, Target: "docker/docker-compose.yml", KeyPath: []string{"services", "app", "image"}}

	res := Evaluate(context.Background(), r, env)
	assert.Equal(t, rules.StatusPass, res.Status, res.Message)

	r.Target = "docker/broken.yml"
	res = Evaluate(context.Background(), r, env)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Contains(t, res.Message, "invalid YAML in docker/broken.yml")

	r.Target = "docker/absent.yml"
	res = Evaluate(context.Background(), r, env)
	assert.Equal(t, rules.StatusSkipped, res.Status)
}

func TestEvaluate_DocumentAlternatives(t *testing.T) {
	r := rules.Rule{
		ID:           "docker-compose-services",
		Kind:         rules.KindYAMLKeyPresent,
		Severity:     rules.SeverityOptional,
		Scope:        rules.ScopeRoot,
		Target:       "docker/docker-compose.yml",
		Alternatives: []string{"docker/docker-compose.yaml"},
		KeyPath:      []string{"services"},
	}

	yamlOnly := testEnv(fstest.MapFS{"docker/docker-compose.yaml": file("services:\n  app: {}\n")}, nil, data.RuntimeInfo{})
	res := Evaluate(context.Background(), r, yamlOnly)
	assert.Equal(t, rules.StatusPass, res.Status, res.Message)
	assert.Equal(t, "docker/docker-compose.yaml", res.Evidence["path"])

	// The first existing candidate is the one checked, even if a later one would pass.
	both := testEnv(fstest.MapFS{
		"docker/docker-compose.yml":  file("version: '3'\n"),
		"docker/docker-compose.yaml": file("services:\n  app: {}\n"),
	}, nil, data.RuntimeInfo{})
	res = Evaluate(context.Background(), r, both)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Equal(t, "key services missing from docker/docker-compose.yml", res.Message)

	res = Evaluate(context.Background(), r, testEnv(fstest.MapFS{}, nil, data.RuntimeInfo{}))
	assert.Equal(t, rules.StatusSkipped, res.Status)
	assert.Equal(t, "docker/docker-compose.yml or docker/docker-compose.yaml not found", res.Message)
}

func TestEvaluate_StringContains(t *testing.T) {
	env := testEnv(nil, fstest.MapFS{
		"public/index.php": file("<?php\nrequire '../vendor/autoload.php';\n"),
		"extend.php":       file("return [];\n"),
	}, data.RuntimeInfo{})
	r := func(target string, sev rules.Severity) rules.Rule {
		return rules.Rule{ID: "s", Kind: rules.KindStringContains, Severity: sev, Scope: rules.ScopeSubject, Target: target, Substring: "<?php"}
	}

	assert.Equal(t, rules.StatusPass, Evaluate(context.Background(), r("public/index.php", rules.SeverityOptional), env).Status)

	res := Evaluate(context.Background(), r("extend.php", rules.SeverityOptional), env)
	assert.Equal(t, rules.StatusFail, res.Status, "present file lacking the substring fails even when optional")
	assert.Equal(t, `src/extend.php does not contain "<?php"`, res.Message)

	assert.Equal(t, rules.StatusSkipped, Evaluate(context.Background(), r("config.php", rules.SeverityOptional), env).Status)
	assert.Equal(t, rules.StatusFail, Evaluate(context.Background(), r("config.php", rules.SeverityRequired), env).Status)
}

func TestEvaluate_VersionAtLeast(t *testing.T) {
	r := rules.Rule{ID: "php-version", Kind: rules.KindVersionAtLeast, Severity: rules.SeverityRequired, Minimum: "8.0"}

	tests := []struct {
		version string
		status  rules.Status
	}{
		{version: "8.1.2", status: rules.StatusPass},
		{version: "8.0", status: rules.StatusPass},
		{version: "8.0.0-dev", status: rules.StatusPass},
		{version: "7.4.0", status: rules.StatusFail},
		{version: "10.0.1", status: rules.StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			env := testEnv(nil, nil, data.NewRuntimeInfo(tt.version, nil, "config"))
			res := Evaluate(context.Background(), r, env)
			assert.Equal(t, tt.status, res.Status, res.Message)
			assert.Equal(t, tt.version, res.Evidence["runtime_version"])
		})
	}

	unknown := testEnv(nil, nil, data.RuntimeInfo{})
	assert.Equal(t, rules.StatusFail, Evaluate(context.Background(), r, unknown).Status)
	r.Severity = rules.SeverityOptional
	res := Evaluate(context.Background(), r, unknown)
	assert.Equal(t, rules.StatusSkipped, res.Status)
	assert.Equal(t, "runtime version unknown", res.Message)
}

func TestEvaluate_VersionAtLeast_FourComponents(t *testing.T) {
	r := rules.Rule{ID: "php-version", Kind: rules.KindVersionAtLeast, Severity: rules.SeverityRequired, Minimum: "8.1.2.5"}

	res := Evaluate(context.Background(), r, testEnv(nil, nil, data.NewRuntimeInfo("8.1.2.4", nil, "config")))
	assert.Equal(t, rules.StatusFail, res.Status, res.Message)
	assert.Equal(t, "runtime version 8.1.2.4 is older than 8.1.2.5", res.Message)

	res = Evaluate(context.Background(), r, testEnv(nil, nil, data.NewRuntimeInfo("8.1.2.5", nil, "config")))
	assert.Equal(t, rules.StatusPass, res.Status, res.Message)
}

func TestEvaluate_ExtensionLoaded(t *testing.T) {
	rt := data.NewRuntimeInfo("8.1.2", []string{"JSON", "mbstring"}, "config")
	env := testEnv(nil, nil, rt)
	r := rules.Rule{ID: "php-ext-json", Kind: rules.KindExtensionLoaded, Severity: rules.SeverityRequired, Target: "json"}

	assert.Equal(t, rules.StatusPass, Evaluate(context.Background(), r, env).Status)

	r.Target = "curl"
	assert.Equal(t, rules.StatusFail, Evaluate(context.Background(), r, env).Status)
	r.Severity = rules.SeverityOptional
	assert.Equal(t, rules.StatusSkipped, Evaluate(context.Background(), r, env).Status)

	res := Evaluate(context.Background(), r, testEnv(nil, nil, data.RuntimeInfo{}))
	assert.Equal(t, rules.StatusSkipped, res.Status)
	assert.Equal(t, "loaded extensions unknown", res.Message)
}

func TestEvaluate_Idempotent(t *testing.T) {
	env := testEnv(fstest.MapFS{"composer.json": file(rootComposer)}, fstest.MapFS{}, data.NewRuntimeInfo("8.1.2", []string{"json"}, "config"))
	ev := NewEvaluator(env, nil)
	table := []rules.Rule{
		{ID: "a", Kind: rules.KindJSONKeyPresent, Severity: rules.SeverityRequired, Scope: rules.ScopeRoot, Target: "composer.json", KeyPath: []string{"name"}, Expect: "flarum-cicd/pipeline"},
		{ID: "b", Kind: rules.KindDirExists, Severity: rules.SeverityOptional, Scope: rules.ScopeSubject, Target: "storage"},
		{ID: "c", Kind: rules.KindVersionAtLeast, Severity: rules.SeverityRequired, Minimum: "8.0"},
	}
	for _, r := range table {
		first := ev.Evaluate(context.Background(), r)
		second := ev.Evaluate(context.Background(), r)
		require.Equal(t, first, second, r.ID)
	}
}

func TestEvaluate_CanceledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env := testEnv(fstest.MapFS{".gitignore": file("vendor/")}, nil, data.RuntimeInfo{})
	res := Evaluate(ctx, fileRule("root-gitignore", rules.SeverityOptional, rules.ScopeRoot, ".gitignore"), env)
	assert.Equal(t, rules.StatusFail, res.Status)
	assert.Contains(t, res.Message, "context canceled")
}
