package artifice

import (
	"encoding/json"
	"strconv"

	"github.com/veetance/artifice/internal/curation"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/pkg/core"
)

// View holds what the page shows for one visitor.
type View struct {
	Status  curation.Status
	Context *host.ExecutionContext
	Params  core.ParameterMap
}

func buildView(sess *curation.Session) View {
	return View{
		Status:  sess.Status(),
		Context: sess.Host().Current(),
		Params:  sess.Host().Params(),
	}
}

// bridgeCall is the script that hands msg to the bridge, which posts it
// into the sandbox iframe.
func bridgeCall(msg host.Message) string {
	data, err := json.Marshal(msg)
	if err != nil {
		data = []byte("null")
	}
	return "window.artifice && window.artifice.post(" + string(data) + ")"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// tuningValue is the live value of def, or its default before the session
// has one.
func tuningValue(view View, def core.ParameterDefinition) float64 {
	if v, ok := view.Params[def.Name]; ok {
		return v
	}
	return def.DefaultValue
}

// tuningSignals seeds the datastar params signal with the slider values.
func tuningSignals(view View) (string, error) {
	values := make(core.ParameterMap, len(view.Context.Parameters))
	for _, def := range view.Context.Parameters {
		values[def.Name] = tuningValue(view, def)
	}
	data, err := json.Marshal(TuningSignals{Params: values})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
