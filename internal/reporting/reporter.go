package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/upmerge/internal/utils"
)

const (
	verboseServiceMessageConstant      = "##octopus[stdout-verbose]"
	highlightServiceMessageConstant    = "##octopus[stdout-highlight]"
	defaultServiceMessageConstant      = "##octopus[stdout-default]"
	lineTerminatorConstant             = "\n"
	unknownFormatErrorTemplateConstant = "unsupported output format %q"
)

// Format selects how priorities are rendered.
type Format string

// Supported output formats.
const (
	FormatPlain   Format = Format("plain")
	FormatOctopus Format = Format("octopus")
)

// ParseFormat validates a configured output format. Empty values select FormatPlain.
func ParseFormat(rawFormat string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(rawFormat))) {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatOctopus:
		return FormatOctopus, nil
	default:
		return "", fmt.Errorf(unknownFormatErrorTemplateConstant, rawFormat)
	}
}

// Reporter writes operator-facing messages at normal, verbose, and highlight priority.
type Reporter struct {
	format         Format
	standardOutput io.Writer
	verboseOutput  io.Writer
}

// NewReporter constructs a reporter. In plain format verbose output goes to errorOutput;
// in octopus format everything goes to standardOutput wrapped in service messages.
func NewReporter(format Format, standardOutput io.Writer, errorOutput io.Writer) *Reporter {
	if standardOutput == nil {
		standardOutput = io.Discard
	}
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	flushingStandardOutput := utils.NewFlushingWriter(standardOutput)
	verboseOutput := utils.NewFlushingWriter(errorOutput)
	if format == FormatOctopus {
		verboseOutput = flushingStandardOutput
	}
	return &Reporter{format: format, standardOutput: flushingStandardOutput, verboseOutput: verboseOutput}
}

// NewDiscardReporter returns a reporter that drops every message.
func NewDiscardReporter() *Reporter {
	return NewReporter(FormatPlain, io.Discard, io.Discard)
}

// Format reports the configured output format.
func (reporter *Reporter) Format() Format {
	return reporter.format
}

// Output exposes the normal-priority writer for service messages and rendered tables.
func (reporter *Reporter) Output() io.Writer {
	return reporter.standardOutput
}

// Printf writes a normal-priority line.
func (reporter *Reporter) Printf(format string, arguments ...any) {
	reporter.writeLine(reporter.standardOutput, fmt.Sprintf(format, arguments...))
}

// Verbosef writes a verbose-priority line.
func (reporter *Reporter) Verbosef(format string, arguments ...any) {
	reporter.writeWrapped(reporter.verboseOutput, verboseServiceMessageConstant, fmt.Sprintf(format, arguments...))
}

// Highlightf writes a highlighted line.
func (reporter *Reporter) Highlightf(format string, arguments ...any) {
	reporter.writeWrapped(reporter.standardOutput, highlightServiceMessageConstant, fmt.Sprintf(format, arguments...))
}

func (reporter *Reporter) writeWrapped(writer io.Writer, serviceMessage string, message string) {
	if reporter.format != FormatOctopus {
		reporter.writeLine(writer, message)
		return
	}
	reporter.writeLine(writer, serviceMessage+lineTerminatorConstant+strings.TrimRight(message, lineTerminatorConstant)+lineTerminatorConstant+defaultServiceMessageConstant)
}

func (reporter *Reporter) writeLine(writer io.Writer, message string) {
	_, _ = io.WriteString(writer, strings.TrimRight(message, lineTerminatorConstant)+lineTerminatorConstant)
}
