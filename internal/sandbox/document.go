// Package sandbox renders the isolated execution document that hosts one
// transformed sketch, and the response headers that confine it.
package sandbox

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/veetance/artifice/internal/host"
)

// DefaultRuntimeURL is the visual runtime loaded after the sketch code.
const DefaultRuntimeURL = "https://cdnjs.cloudflare.com/ajax/libs/p5.js/1.9.0/p5.min.js"

// Element ids of the JSON payloads embedded in the document.
const (
	ParamsElementID  = "artifice-params"
	CodeElementID    = "artifice-code"
	ContextElementID = "artifice-context"
	RuntimeElementID = "artifice-runtime"
)

const documentStyle = `html,body{margin:0;padding:0;overflow:hidden;background:transparent}canvas{display:block}`

// bootScript runs inside the sandbox. p is a global lexical binding so the
// indirectly evaluated sketch resolves p.NAME against it. The runtime script
// is appended only after the sketch code has defined its entry point.
const bootScript = `
const readJSON = (id) => JSON.parse(document.getElementById(id).textContent);
let p = readJSON("` + ParamsElementID + `");
const artificeContext = readJSON("` + ContextElementID + `");
window.addEventListener("message", (event) => {
  if (event.source !== window.parent) return;
  const msg = event.data;
  if (msg && msg.type === "update" && msg.payload) Object.assign(p, msg.payload);
});
function artificeEmit(payload) {
  window.parent.postMessage({ type: "sketchUpdate", context: artificeContext, payload: payload }, "*");
}
window.addEventListener("load", () => {
  try {
    (0, eval)(readJSON("` + CodeElementID + `"));
  } catch (err) {
    console.error("artifice: sketch failed", err);
  }
  const runtime = document.createElement("script");
  runtime.src = readJSON("` + RuntimeElementID + `");
  document.body.appendChild(runtime);
});
`

// Document renders the execution document for ec. The parameter snapshot,
// the code and the runtime URL are embedded as JSON, never as markup.
func Document(ec *host.ExecutionContext, runtimeURL string) templ.Component {
	if runtimeURL == "" {
		runtimeURL = DefaultRuntimeURL
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(ec.Source)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><style>`+documentStyle+`</style>`); err != nil {
			return err
		}

		payloads := []templ.Component{
			templ.JSONScript(ParamsElementID, ec.Params),
			templ.JSONScript(ContextElementID, ec.ID),
			templ.JSONScript(CodeElementID, ec.Code),
			templ.JSONScript(RuntimeElementID, runtimeURL),
		}
		for _, c := range payloads {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `<script>`+bootScript+`</script></head><body></body></html>`)
		return err
	})
}
