package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

const (
	summaryRepositoryHeaderConstant = "Repository"
	summarySpaceHeaderConstant      = "Space"
	summaryOutcomeHeaderConstant    = "Outcome"
	summaryDetailHeaderConstant     = "Detail"
	summaryColumnSeparatorConstant  = " "
	neutralColorConstant            = "245"
	successColorConstant            = "42"
	warningColorConstant            = "214"
	failureColorConstant            = "196"
)

// Tone classifies a summary row for styling.
type Tone int

// Supported tones.
const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneWarning
	ToneFailure
)

// SummaryRow describes one processed repository.
type SummaryRow struct {
	Repository string
	Space      string
	Outcome    string
	Detail     string
	Tone       Tone
}

// OutcomeSummaryRenderer prints a table of per-repository outcomes.
type OutcomeSummaryRenderer struct {
	Styled bool
}

var toneColors = map[Tone]lipgloss.Color{
	ToneNeutral: lipgloss.Color(neutralColorConstant),
	ToneSuccess: lipgloss.Color(successColorConstant),
	ToneWarning: lipgloss.Color(warningColorConstant),
	ToneFailure: lipgloss.Color(failureColorConstant),
}

// Render writes the summary table. Nothing is written when rows is empty.
func (renderer OutcomeSummaryRenderer) Render(writer io.Writer, rows []SummaryRow) {
	if writer == nil || len(rows) == 0 {
		return
	}

	table := tablewriter.NewWriter(writer)
	table.SetRowLine(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)
	table.SetColumnSeparator(summaryColumnSeparatorConstant)
	table.SetCenterSeparator(summaryColumnSeparatorConstant)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{summaryRepositoryHeaderConstant, summarySpaceHeaderConstant, summaryOutcomeHeaderConstant, summaryDetailHeaderConstant})
	for _, row := range rows {
		table.Append([]string{row.Repository, row.Space, renderer.renderOutcome(row), row.Detail})
	}
	table.Render()
}

func (renderer OutcomeSummaryRenderer) renderOutcome(row SummaryRow) string {
	if !renderer.Styled {
		return row.Outcome
	}
	outcomeStyle := lipgloss.NewStyle().Foreground(toneColors[row.Tone])
	if row.Tone == ToneFailure {
		outcomeStyle = outcomeStyle.Bold(true)
	}
	return outcomeStyle.Render(row.Outcome)
}
