package pluginmeta

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/jumppad-labs/pluginmeta/errors"
)

// Validate checks the structural properties of a decoded descriptor:
// mandatory keys are present and non empty, booleans are True/False
// literals, URLs are well formed and versions can be compared. Problems that
// do not stop the host from loading the plugin are reported as warnings.
// Returns nil when nothing was found.
func Validate(m *Metadata) *errors.ConfigError {
	v := &validator{m: m, ce: errors.NewConfigError()}

	v.mandatory()
	v.booleans()
	v.urls()
	v.versions()
	v.email()
	v.recommended()
	v.icon()
	v.unknown()
	v.dependencies()

	if v.m.Experimental && v.m.Deprecated {
		v.warn(KeyDeprecated, "plugin is marked both experimental and deprecated")
	}

	if v.ce.Empty() {
		return nil
	}

	return v.ce
}

type validator struct {
	m  *Metadata
	ce *errors.ConfigError
}

func (v *validator) add(key, level, msg string) {
	v.ce.AppendValidationError(errors.NewKeyError(v.m.File, v.m.Line(key), key, level, msg))
}

func (v *validator) fail(key, format string, args ...interface{}) {
	v.add(key, errors.ParserErrorLevelError, fmt.Sprintf(format, args...))
}

func (v *validator) warn(key, format string, args ...interface{}) {
	v.add(key, errors.ParserErrorLevelWarning, fmt.Sprintf(format, args...))
}

func (v *validator) mandatory() {
	for _, k := range MandatoryKeys {
		raw, ok := v.m.Raw(k)
		switch {
		case !ok:
			v.fail(k, "mandatory key %q is missing", k)
		case strings.TrimSpace(raw) == "":
			v.fail(k, "mandatory key %q must not be empty", k)
		}
	}
}

func (v *validator) booleans() {
	for _, k := range BooleanKeys {
		raw, ok := v.m.Raw(k)
		if !ok {
			continue
		}

		if _, err := ParseBool(raw); err != nil {
			v.fail(k, "invalid value for %q: %s", k, err)
		}
	}
}

func (v *validator) urls() {
	for _, k := range URLKeys {
		raw, ok := v.m.Raw(k)
		if !ok || raw == "" {
			continue
		}

		if err := checkURL(raw); err != nil {
			v.fail(k, "invalid URL for %q: %s", k, err)
		}
	}
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}

	return nil
}

func (v *validator) versions() {
	if v.m.Version != "" {
		if _, err := version.NewVersion(v.m.Version); err != nil {
			v.fail(KeyVersion, "version %q is not a valid version number", v.m.Version)
		}
	}

	var min, max *version.Version
	var err error

	if v.m.QgisMinimumVersion != "" {
		min, err = version.NewVersion(v.m.QgisMinimumVersion)
		if err != nil {
			v.fail(KeyQgisMinimumVersion, "%s %q is not a valid version number", KeyQgisMinimumVersion, v.m.QgisMinimumVersion)
		}
	}

	if v.m.QgisMaximumVersion != "" {
		max, err = version.NewVersion(v.m.QgisMaximumVersion)
		if err != nil {
			v.fail(KeyQgisMaximumVersion, "%s %q is not a valid version number", KeyQgisMaximumVersion, v.m.QgisMaximumVersion)
		}
	}

	if min != nil && max != nil && max.LessThan(min) {
		v.fail(KeyQgisMaximumVersion, "%s %s is lower than %s %s", KeyQgisMaximumVersion, max, KeyQgisMinimumVersion, min)
	}
}

func (v *validator) email() {
	if v.m.Email == "" {
		return
	}

	if _, err := mail.ParseAddress(v.m.Email); err != nil {
		v.fail(KeyEmail, "email %q is not a valid address", v.m.Email)
	}
}

// tracker and repository are required by the public plugin repository but
// not by the host
func (v *validator) recommended() {
	for _, k := range []string{KeyTracker, KeyRepository} {
		if raw, ok := v.m.Raw(k); !ok || raw == "" {
			v.warn(k, "recommended key %q is not set", k)
		}
	}
}

func (v *validator) icon() {
	if v.m.Icon == "" || v.m.Dir == "" {
		return
	}

	p := v.m.Icon
	if !filepath.IsAbs(p) {
		p = filepath.Join(v.m.Dir, filepath.FromSlash(p))
	}

	if _, err := os.Stat(p); err != nil {
		v.warn(KeyIcon, "icon %q does not exist", v.m.Icon)
	}
}

func (v *validator) unknown() {
	for _, k := range v.m.ExtraKeys() {
		v.warn(k, "unknown key %q", k)
	}
}

func (v *validator) dependencies() {
	for _, d := range v.m.Dependencies {
		if d.Name == "" {
			v.fail(KeyPluginDependencies, "dependency %q has no plugin name", d.String())
			continue
		}

		if d.Version != "" {
			if _, err := version.NewVersion(d.Version); err != nil {
				v.fail(KeyPluginDependencies, "dependency %q has an invalid version", d.String())
			}
		}
	}
}
