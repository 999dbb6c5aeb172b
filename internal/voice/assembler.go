package voice

import "fmt"

// Assemble joins the selected per-section variants into the final response
// text per skeleton shape: single-space separated, no extra punctuation.
func Assemble(skeleton string, selected map[string]string) (string, error) {
	sections := SectionsFor(skeleton)
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		text, ok := selected[section]
		if !ok {
			return "", &AssemblyError{Reason: fmt.Sprintf("missing section %q for skeleton %s", section, skeleton)}
		}
		parts = append(parts, text)
	}
	return parts[0] + " " + parts[1] + " " + parts[2], nil
}
