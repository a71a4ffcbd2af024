package rendering

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ThemeClasses maps visual regions to the style-class strings a theme
// assigns them. Templates look classes up by region name.
type ThemeClasses map[string]string

// LoadThemes reads the theme configuration file, a JSON object keyed by
// theme name.
func LoadThemes(path string) (map[string]ThemeClasses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ThemeError{Message: fmt.Sprintf("theme configuration not found: %s", path), Cause: err}
	}

	var themes map[string]ThemeClasses
	if err := json.Unmarshal(data, &themes); err != nil {
		return nil, &ThemeError{Message: "failed to parse theme configuration", Cause: err}
	}

	return themes, nil
}

// ThemeNames returns the available theme names in sorted order.
func ThemeNames(themes map[string]ThemeClasses) []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
