package parsing

import (
	"path/filepath"
	"strings"
)

// LabelRule renames a command whose executable base name equals Match.
type LabelRule struct {
	Match string `toml:"match" yaml:"match" json:"match"`
	Label string `toml:"label" yaml:"label" json:"label"`
}

// LabelTable is an ordered list of command label substitutions. The first matching
// rule wins; a command that matches no rule is kept as-is.
type LabelTable []LabelRule

// Apply returns the canonical label for command.
func (t LabelTable) Apply(command string) string {
	if len(t) == 0 {
		return command
	}
	exe, _, _ := strings.Cut(command, " ")
	exe = filepath.Base(exe)
	for _, rule := range t {
		if rule.Match == exe {
			return rule.Label
		}
	}
	return command
}
