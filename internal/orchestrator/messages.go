package orchestrator

import (
	"encoding/json"
	"fmt"
)

// resultLogLen caps per-task output carried into oracle feedback. The full
// capture is already bounded; this trims it further so result sets stay small
// inside the growing conversation.
const resultLogLen = 200

// initialPlanningMessage wraps the operator's raw request in the planning
// template used for the first oracle round-trip.
func initialPlanningMessage(input string) string {
	return fmt.Sprintf(`I need help with the following project:

%s

Please analyze this request and provide a structured plan with specific tasks.
First, set phase to 'planning' and outline what needs to be done.
Then provide executable tasks.`, input)
}

// feedbackMessage is the deterministic per-iteration report sent back to the
// oracle: phase, success ratio, and the full result set.
func feedbackMessage(phase Phase, results TaskResultSet) string {
	return fmt.Sprintf(`Task execution results for phase '%s':

Success rate: %d/%d tasks succeeded

Results:
%s

Based on these results:
1. If tasks failed, provide fixes in the next iteration
2. If this phase succeeded, move to the next phase
3. If all requirements are met, set phase to 'complete'
4. Always provide clear next steps`,
		phase, results.SuccessCount(), len(results), marshalResults(results))
}

// replacementMessage supersedes the default feedback when the operator
// provides new instructions at a checkpoint. The prior result set rides along
// as context.
func replacementMessage(instructions string, results TaskResultSet) string {
	return fmt.Sprintf(`User provided new instructions: %s

Previous task results:
%s

Please adjust the plan accordingly and provide next tasks.`,
		instructions, marshalResults(results))
}

func marshalResults(results TaskResultSet) string {
	if results == nil {
		results = TaskResultSet{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unserializable results: %v)", err)
	}
	return string(data)
}
