package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const valueFlag = "value"

func AddValueFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray(valueFlag, nil, "value for one file as FILE=VALUE, may be repeated")
}

// GetValues parses the repeated --value FILE=VALUE flag.
func GetValues(cmd *cobra.Command) (map[string]string, error) {
	raw, err := cmd.Flags().GetStringArray(valueFlag)
	if err != nil {
		return nil, fmt.Errorf("get value flag: %w", err)
	}
	values := make(map[string]string, len(raw))
	for _, r := range raw {
		file, value, ok := strings.Cut(r, "=")
		file = strings.TrimSpace(file)
		if !ok || file == "" {
			return nil, fmt.Errorf("invalid value %q, expected FILE=VALUE", r)
		}
		if _, dup := values[file]; dup {
			return nil, fmt.Errorf("value for %s given more than once", file)
		}
		values[file] = value
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one --%s FILE=VALUE is required", valueFlag)
	}
	return values, nil
}

// FormatValue makes multi-line values fit on one output line.
func FormatValue(v string) string {
	return strings.NewReplacer("\\", `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(v)
}
