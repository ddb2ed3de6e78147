package engine

import "fmt"

// Mode selects build vs watch semantics, threaded through every task via
// Environment (spec.md §6 "Environment value").
type Mode int

const (
	ModeBuild Mode = iota
	ModeWatch
)

func (m Mode) String() string {
	if m == ModeWatch {
		return "watch"
	}
	return "build"
}

// Environment is the record passed through the graph and into every task.
//
// UserData is an opaque payload of a type chosen by the blueprint author;
// the engine never inspects it.
type Environment struct {
	GeneratorName string
	Mode          Mode
	DevServerPort int
	UserData      any
}

// LiveReloadSnippet is the short script injected into HTML pages by tasks
// that want live reload, per spec.md §6 "Clients' reload snippet". The
// caller passes the dev server's reload WebSocket URL as wsURL.
func LiveReloadSnippet(wsURL string) string {
	return fmt.Sprintf(`<script>
(function() {
  var ws = new WebSocket(%q);
  ws.onmessage = function() { window.location.reload(); };
})();
</script>`, wsURL)
}
