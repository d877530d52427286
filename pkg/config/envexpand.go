package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands `{{.VAR}}` references in YAML content against the
// process environment. A variable with no matching environment entry
// expands to the empty string rather than failing — validation catches
// required fields left empty. A malformed template (unclosed action,
// nested braces) is not an error: ExpandEnv returns the original bytes
// unchanged and lets the YAML parser decide whether the raw text still
// parses.
//
// Shell-style `$VAR`/`${VAR}` is deliberately NOT expanded: regex patterns
// and literal passwords routinely contain a bare `$`, and templating only
// the `{{.VAR}}` form avoids colliding with them.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envLookup()); err != nil {
		return data
	}
	return buf.Bytes()
}

func envLookup() map[string]string {
	env := os.Environ()
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return vars
}
