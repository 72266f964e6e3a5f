package pluginmeta

import (
	"fmt"
	"strings"

	"github.com/mailgun/raymond/v2"
)

var descriptorTemplate = `# This file contains metadata for your plugin.

# This file should be included when you package your plugin.
# Mandatory items:

[general]
name={{{name}}}
qgisMinimumVersion={{{qgisMinimumVersion}}}
{{#if qgisMaximumVersion}}qgisMaximumVersion={{{qgisMaximumVersion}}}
{{/if}}description={{{description}}}
version={{{version}}}
author={{{author}}}
email={{{email}}}
{{#if about}}
about={{{indent about}}}
{{/if}}
{{#if tracker}}tracker={{{tracker}}}
{{/if}}{{#if repository}}repository={{{repository}}}
{{/if}}# End of mandatory metadata

# Recommended items:

hasProcessingProvider={{{hasProcessingProvider}}}
{{#if changelog}}changelog={{{indent changelog}}}
{{/if}}
# Tags are comma separated with spaces allowed
{{#if tags}}tags={{{tags}}}
{{/if}}
{{#if homepage}}homepage={{{homepage}}}
{{/if}}{{#if category}}category={{{category}}}
{{/if}}{{#if icon}}icon={{{icon}}}
{{/if}}experimental={{{experimental}}}
deprecated={{{deprecated}}}
{{#if dependencies}}plugin_dependencies={{{dependencies}}}
{{/if}}server={{{server}}}
{{#each extra}}{{{key}}}={{{indent value}}}
{{/each}}`

// indentContinuation turns a multi line value into continuation lines. Blank
// lines end a value in the descriptor format so they are dropped.
func indentContinuation(in string) string {
	lines := []string{}
	for _, l := range strings.Split(in, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	return strings.Join(lines, "\n  ")
}

// RenderMetadata writes m in the descriptor file format. Multi line values
// are written as indented continuation lines so the output parses back to
// the same metadata.
func RenderMetadata(m *Metadata) (string, error) {
	tmpl, err := raymond.Parse(descriptorTemplate)
	if err != nil {
		return "", fmt.Errorf("error parsing template: %s", err)
	}

	tmpl.RegisterHelpers(map[string]interface{}{
		"indent": indentContinuation,
	})

	deps := []string{}
	for _, d := range m.Dependencies {
		deps = append(deps, d.String())
	}

	extra := []map[string]string{}
	for _, k := range m.ExtraKeys() {
		extra = append(extra, map[string]string{"key": k, "value": m.Extra[k]})
	}

	result, err := tmpl.Exec(map[string]interface{}{
		"name":                  m.Name,
		"qgisMinimumVersion":    m.QgisMinimumVersion,
		"qgisMaximumVersion":    m.QgisMaximumVersion,
		"description":           m.Description,
		"version":               m.Version,
		"author":                m.Author,
		"email":                 m.Email,
		"about":                 m.About,
		"changelog":             m.Changelog,
		"tracker":               m.Tracker,
		"repository":            m.Repository,
		"homepage":              m.Homepage,
		"tags":                  strings.Join(m.Tags, ", "),
		"category":              m.Category,
		"icon":                  m.Icon,
		"experimental":          FormatBool(m.Experimental),
		"deprecated":            FormatBool(m.Deprecated),
		"hasProcessingProvider": FormatBool(m.HasProcessingProvider),
		"server":                FormatBool(m.Server),
		"dependencies":          strings.Join(deps, ","),
		"extra":                 extra,
	})
	if err != nil {
		return "", fmt.Errorf("error processing template: %s", err)
	}

	return result, nil
}
