package npm

import (
	"bufio"
	"net/url"
	"os"
	"strings"

	"go.trai.ch/zerr"
)

// TokenFromNpmrc returns the _authToken configured for registry in an .npmrc style file.
// Entries are matched on host and path prefix, longest match first. Environment references
// such as ${NPM_TOKEN} are expanded.
func TokenFromNpmrc(path, registry string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from configuration
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open npmrc"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	u, err := url.Parse(registry)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "invalid registry url"), "registry", registry)
	}
	target := "//" + u.Host + strings.TrimSuffix(u.Path, "/") + "/"

	var best, token string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		scope, found := strings.CutSuffix(key, ":_authToken")
		if !found || !strings.HasPrefix(scope, "//") {
			continue
		}
		if !strings.HasSuffix(scope, "/") {
			scope += "/"
		}
		if strings.HasPrefix(target, scope) && len(scope) > len(best) {
			best = scope
			token = os.ExpandEnv(strings.Trim(strings.TrimSpace(value), `"'`))
		}
	}
	if err := scanner.Err(); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read npmrc"), "path", path)
	}
	return token, nil
}
