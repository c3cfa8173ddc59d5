package runbooks

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/temirov/upmerge/internal/dependencies"
	"github.com/temirov/upmerge/internal/octopus"
	"github.com/temirov/upmerge/internal/reporting"
)

const (
	spaceLookupUseConstant              = "space-lookup"
	spaceLookupShortDescriptionConstant = "Find the Octopus space created for a tenant"
	spaceLookupLongDescriptionConstant  = "space-lookup queries the Octopus server for the space named after the tenant, retrying while the server is not ready, and publishes its ID as the SpaceID output variable."
	spaceMatchedMessageConstant         = "Matched tenant name to space"
	spaceIDPlainTemplateConstant        = "SpaceID=%s"
)

// SpaceLookupCommandBuilder assembles the space-lookup command.
type SpaceLookupCommandBuilder struct {
	Runtime
}

// Build constructs the space-lookup command.
func (builder *SpaceLookupCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   spaceLookupUseConstant,
		Short: spaceLookupShortDescriptionConstant,
		Long:  spaceLookupLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().String(flagTenantNameNameConstant, "", flagTenantNameUsageConstant)
	command.Flags().String(flagOctopusURLNameConstant, "", flagOctopusURLUsageConstant)
	command.Flags().String(flagAPIKeyNameConstant, "", flagAPIKeyUsageConstant)
	command.Flags().Int(flagAttemptsNameConstant, 0, flagAttemptsUsageConstant)
	command.Flags().Duration(flagDelayNameConstant, 0, flagDelayUsageConstant)
	return command, nil
}

func (builder *SpaceLookupCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if argumentsError := rejectArguments(command, arguments); argumentsError != nil {
		return argumentsError
	}

	tenantName := builder.resolver().Value(variableTenantNameConstant)
	applyFlagOverrides(command, []stringOption{{flagName: flagTenantNameNameConstant, target: &tenantName}})
	if requiredError := requireOption(tenantName, descriptionTenantNameConstant, flagTenantNameNameConstant, variableTenantNameConstant); requiredError != nil {
		return requiredError
	}

	activeSession, sessionError := builder.openSession(command)
	if sessionError != nil {
		return sessionError
	}
	octopusConfiguration := activeSession.configuration.Octopus
	applyFlagOverrides(command, []stringOption{
		{flagName: flagOctopusURLNameConstant, target: &octopusConfiguration.ServerURL},
		{flagName: flagAPIKeyNameConstant, target: &octopusConfiguration.APIKey},
	})
	if command.Flags().Changed(flagAttemptsNameConstant) {
		octopusConfiguration.Attempts, _ = command.Flags().GetInt(flagAttemptsNameConstant)
	}
	if command.Flags().Changed(flagDelayNameConstant) {
		octopusConfiguration.Delay, _ = command.Flags().GetDuration(flagDelayNameConstant)
	}

	spaceClient, clientError := octopus.NewSpaceClient(octopus.SpaceClientConfiguration{
		ServerURL: octopusConfiguration.ServerURL,
		APIKey:    octopusConfiguration.APIKey,
		Attempts:  octopusConfiguration.Attempts,
		Delay:     octopusConfiguration.Delay,
	}, dependencies.ResolveHTTPClient(builder.HTTPClient), builder.Sleeper, activeSession.logger)
	if clientError != nil {
		return clientError
	}

	match, lookupError := spaceClient.LookupSpace(command.Context(), tenantName)
	if lookupError != nil {
		if errors.Is(lookupError, octopus.ErrSpaceNotFound) {
			activeSession.reporter.Printf("%s", lookupError.Error())
		}
		return lookupError
	}

	activeSession.reporter.Printf("%s", spaceMatchedMessageConstant)
	if activeSession.reporter.Format() == reporting.FormatOctopus {
		return octopus.PublishSpaceID(octopus.NewServiceMessageWriter(activeSession.reporter.Output()), match)
	}
	activeSession.reporter.Printf(spaceIDPlainTemplateConstant, match.ID)
	return nil
}
