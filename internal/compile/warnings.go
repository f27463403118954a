package compile

import "fmt"

// Warning codes.
const (
	WarnIndependentScaleSharedGuide = "independent-scale-shared-guide"
	WarnScalePropertyUnsupported    = "scale-property-unsupported"
	WarnRangeStepDropped            = "range-step-dropped"
	WarnScaleConflict               = "scale-conflict"
	WarnSelectionTransform          = "selection-transform-unsupported"
	WarnFacetIndependentSize        = "facet-independent-size"
)

// Warning is a non-fatal adjustment made while compiling.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

func (c *compiler) warn(code, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	c.warnings = append(c.warnings, w)
	if c.opts.Logger != nil {
		c.opts.Logger.Printf("warning: %s", w)
	}
}
