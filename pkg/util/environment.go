package util

import (
	"os"
	"strings"
)

// GetEnvironmentVariables returns the environment variables whose names start
// with prefix. An empty prefix returns all of them.
func GetEnvironmentVariables(prefix string) map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}
