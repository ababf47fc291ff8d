package assistant

import (
	"fmt"

	"github.com/counseldesk/counsel/pkg/contracts"
	"github.com/counseldesk/counsel/pkg/models"
)

// SystemInstruction opens every free-text generation call. It is never
// returned to callers.
const SystemInstruction = "You are a formal legal assistant supporting attorneys and paralegals. " +
	"Answer in a precise, professional register suitable for legal correspondence. " +
	"Write plain text only: do not use Markdown or any other markup, including asterisks, " +
	"underscores, backticks or heading markers. " +
	"If the information given is insufficient, say so instead of guessing."

// currentTurnPrefix introduces the caller's instruction in the final turn.
const currentTurnPrefix = "Please provide a formal response to: "

// BuildContents returns the ordered contents for a generation call:
// the system instruction, the prior turns exactly as given, and the
// current turn.
func BuildContents(history []models.ConversationTurn, prompt string) ([]contracts.Content, error) {
	contents := make([]contracts.Content, 0, len(history)+2)
	contents = append(contents, contracts.Content{Role: models.TurnRoleUser, Text: SystemInstruction})

	for i, turn := range history {
		if !turn.Role.Valid() {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("chatHistory[%d].role", i),
				Message: fmt.Sprintf("chatHistory[%d].role must be %q or %q", i, models.TurnRoleUser, models.TurnRoleModel),
			}
		}
		contents = append(contents, contracts.Content{Role: turn.Role, Text: turn.Text})
	}

	contents = append(contents, contracts.Content{Role: models.TurnRoleUser, Text: currentTurnPrefix + prompt})
	return contents, nil
}
