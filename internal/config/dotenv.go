package config

import (
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// loadDotEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment. The file is read as a section-less INI document, so comments
// and quoted values follow INI rules; an "export " prefix on a key is dropped.
// A missing file is not an error. Existing environment variables are not
// overwritten.
func loadDotEnv(path string) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return err
	}

	for _, key := range file.Section(ini.DefaultSection).Keys() {
		name := strings.TrimSpace(strings.TrimPrefix(key.Name(), "export "))
		if name == "" || os.Getenv(name) != "" {
			continue
		}
		_ = os.Setenv(name, key.Value())
	}
	return nil
}
