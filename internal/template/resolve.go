package template

import "github.com/rs/zerolog"

// ResolveParents returns the ancestry of template name, ancestors first and
// name last. Each template's parents are fully resolved, in declared order,
// before the template itself. A template already seen is not visited again,
// so cyclic or diamond-shaped parent graphs terminate and list every
// template once. A template whose descriptor cannot be read is still
// listed so its files can be copied.
func ResolveParents(cacheDir, name, typ string) []string {
	return resolveParents(cacheDir, name, typ, zerolog.Nop())
}

func resolveParents(cacheDir, name, typ string, log zerolog.Logger) []string {
	var resolved []string
	seen := make(map[string]bool)

	var visit func(string)
	visit = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true

		d, err := ReadDescriptor(cacheDir, typ, n)
		if err != nil {
			log.Warn().Err(err).Str("action", "resolve-parents").Str("template", n).Msg("descriptor unavailable")
			resolved = append(resolved, n)
			return
		}
		for _, parent := range d.TemplateParents {
			visit(parent)
		}
		resolved = append(resolved, n)
	}

	visit(name)
	return resolved
}
