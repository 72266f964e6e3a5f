package pluginmeta

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flytam/filenamify"
)

// HashString creates an MD5 hash of the given string
func HashString(in string) string {
	h := md5.New()
	h.Write([]byte(in))

	return fmt.Sprintf("%x", h.Sum(nil))
}

// Checksum identifies the content of a descriptor, it changes whenever any
// decoded value changes
func Checksum(m *Metadata) string {
	// source locations are not part of the content
	c := m.Copy()
	c.File = ""
	c.Dir = ""

	d, _ := json.Marshal(c)

	return HashString(string(d))
}

// PluginID derives a module name from a display name for descriptors that
// were not read from a plugin directory, "Kystdatahuset AIS fetcher"
// becomes "kystdatahuset_ais_fetcher"
func PluginID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.Join(strings.Fields(id), "_")

	safe, err := filenamify.Filenamify(id, filenamify.Options{Replacement: "_"})
	if err != nil {
		return id
	}

	return safe
}
