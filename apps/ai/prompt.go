package ai

import (
	"bytes"
	"strings"

	"github.com/CloudyKit/jet/v6"
	"github.com/botdeck/botdeck-backend/apps/models"
)

// DefaultPromptTemplate is the Jet template wrapped around an agent's system
// prompt. Operators can override it via the ai.prompt_template setting.
const DefaultPromptTemplate = `You are **{{BotName}}**, a chatbot assistant.

{{SystemPrompt}}
{{if Language != ""}}
The visitor writes in "{{Language}}" (ISO 639-1). Answer in the same language.
{{end}}

Rules:
- Stay within the role described above.
- Keep answers short enough for a chat window.
- If you do not know the answer, say so instead of guessing.`

// PromptData holds the variables available to the prompt template
type PromptData struct {
	BotName      string
	AgentName    string
	SystemPrompt string
	Language     string
}

// RenderAgentPrompt renders the system prompt for an agent, honoring a
// custom template from settings when present.
func RenderAgentPrompt(agent *models.Agent, language string) (string, error) {
	templateContent := models.GetSettingValue("ai.prompt_template", DefaultPromptTemplate)

	botName := agent.ChatbotName
	if botName == "" {
		botName = agent.Name
	}

	return renderPrompt(templateContent, PromptData{
		BotName:      botName,
		AgentName:    agent.Name,
		SystemPrompt: strings.TrimSpace(agent.SystemPrompt),
		Language:     language,
	})
}

// renderPrompt executes a Jet template against the prompt variables.
func renderPrompt(templateContent string, data PromptData) (string, error) {
	loader := jet.NewInMemLoader()
	loader.Set("prompt", templateContent)
	set := jet.NewSet(loader)

	tmpl, err := set.GetTemplate("prompt")
	if err != nil {
		return "", err
	}

	vars := make(jet.VarMap)
	vars.Set("BotName", data.BotName)
	vars.Set("AgentName", data.AgentName)
	vars.Set("SystemPrompt", data.SystemPrompt)
	vars.Set("Language", data.Language)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars, nil); err != nil {
		return "", err
	}

	return cleanupTemplateOutput(buf.String()), nil
}

// cleanupTemplateOutput collapses the blank lines left behind by unset
// template branches
func cleanupTemplateOutput(s string) string {
	lines := strings.Split(s, "\n")
	var result []string
	prevEmpty := false

	for _, line := range lines {
		isEmpty := strings.TrimSpace(line) == ""
		if isEmpty && prevEmpty {
			continue
		}
		result = append(result, line)
		prevEmpty = isEmpty
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
