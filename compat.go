package pluginmeta

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// MaximumVersion returns qgisMaximumVersion, or when it is not set the last
// minor release of the major version named by qgisMinimumVersion
func (m *Metadata) MaximumVersion() (string, error) {
	if m.QgisMaximumVersion != "" {
		return m.QgisMaximumVersion, nil
	}

	min, err := version.NewVersion(m.QgisMinimumVersion)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", KeyQgisMinimumVersion, m.QgisMinimumVersion, err)
	}

	return fmt.Sprintf("%d.99", min.Segments()[0]), nil
}

// CompatibleWith returns true when hostVersion lies within the range the
// plugin supports. Release names appended to the host version such as
// "3.34.4-Prizren" are ignored.
func (m *Metadata) CompatibleWith(hostVersion string) (bool, error) {
	hostVersion, _, _ = strings.Cut(strings.TrimSpace(hostVersion), "-")

	host, err := version.NewVersion(hostVersion)
	if err != nil {
		return false, fmt.Errorf("invalid host version %q: %w", hostVersion, err)
	}

	min, err := version.NewVersion(m.QgisMinimumVersion)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", KeyQgisMinimumVersion, m.QgisMinimumVersion, err)
	}

	maxStr, err := m.MaximumVersion()
	if err != nil {
		return false, err
	}

	max, err := version.NewVersion(maxStr)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", KeyQgisMaximumVersion, maxStr, err)
	}

	if host.LessThan(min) {
		return false, nil
	}

	// a maximum of 3.99 covers every 3.99.x patch release
	if n := strings.Count(maxStr, ".") + 1; n < len(host.Segments()) {
		parts := []string{}
		for _, s := range host.Segments()[:n] {
			parts = append(parts, fmt.Sprint(s))
		}

		host, err = version.NewVersion(strings.Join(parts, "."))
		if err != nil {
			return false, err
		}
	}

	return !host.GreaterThan(max), nil
}
