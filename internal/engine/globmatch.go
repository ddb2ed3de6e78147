package engine

import "path"

// globMatch reports whether key matches pattern using shell-style glob
// semantics (path.Match), which is sufficient for the key-space patterns
// tasks register (keys are typically slash-separated logical paths).
func globMatch(pattern, key string) (bool, error) {
	return path.Match(pattern, key)
}
