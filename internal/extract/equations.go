// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mzelen/statpaper/pkg/types"
)

// equationPattern pairs a LaTeX span regex with its kind. The first
// capture group is the equation body. Display environments are matched
// before inline math so `$...$` never eats a display block.
type equationPattern struct {
	re   *regexp.Regexp
	kind types.EquationKind
}

var equationPatterns = []equationPattern{
	{regexp.MustCompile(`(?s)\\begin\{equation\}(.*?)\\end\{equation\}`), types.EquationDisplay},
	{regexp.MustCompile(`(?s)\\\[(.*?)\\\]`), types.EquationDisplay},
	{regexp.MustCompile(`(?s)\$(.*?)\$`), types.EquationInline},
}

// PreserveEquations replaces LaTeX equation spans with stable placeholders
// and returns the rewritten text together with the lifted equations.
// Placeholders are numbered in match order across all patterns.
func PreserveEquations(text string) (string, []types.Equation) {
	var equations []types.Equation
	counter := 1

	for _, p := range equationPatterns {
		kindTag := "DISPLAY"
		if p.kind == types.EquationInline {
			kindTag = "INLINE"
		}

		text = p.re.ReplaceAllStringFunc(text, func(match string) string {
			body := strings.TrimSpace(p.re.FindStringSubmatch(match)[1])
			placeholder := fmt.Sprintf("[EQ_%s_%d]", kindTag, counter)
			counter++

			equations = append(equations, types.Equation{
				Placeholder: placeholder,
				LaTeX:       body,
				Kind:        p.kind,
				TokenLength: len(strings.Fields(body)),
			})
			return placeholder
		})
	}

	return text, equations
}
