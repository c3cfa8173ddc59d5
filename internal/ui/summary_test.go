package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/upmerge/internal/ui"
)

func TestOutcomeSummaryRendererListsEveryRepository(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	renderer := ui.OutcomeSummaryRenderer{}

	renderer.Render(outputBuffer, []ui.SummaryRow{
		{Repository: "acme", Space: "Tenant A", Outcome: "merged", Tone: ui.ToneSuccess},
		{Repository: "globex", Space: "Tenant A", Outcome: "conflicted", Detail: "resolve manually", Tone: ui.ToneWarning},
	})

	renderedLines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
	require.Len(testInstance, renderedLines, 3)
	require.Contains(testInstance, strings.ToUpper(renderedLines[0]), "REPOSITORY")
	require.Contains(testInstance, renderedLines[1], "acme")
	require.Contains(testInstance, renderedLines[1], "merged")
	require.Contains(testInstance, renderedLines[2], "globex")
	require.Contains(testInstance, renderedLines[2], "resolve manually")
}

func TestOutcomeSummaryRendererSkipsEmptyInput(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}

	ui.OutcomeSummaryRenderer{Styled: true}.Render(outputBuffer, nil)

	require.Empty(testInstance, outputBuffer.String())
}
