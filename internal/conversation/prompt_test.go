package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

func testPersona() models.Persona {
	return models.Persona{Nickname: "寶貝", Name: "小美", MBTI: "ENFJ", Job: "老師", Personality: "活潑開朗"}
}

func TestRenderSystemPromptIsDeterministic(t *testing.T) {
	persona := testPersona()
	first := RenderSystemPrompt(persona)
	second := RenderSystemPrompt(persona)
	assert.Equal(t, first, second)
}

func TestRenderSystemPromptEmbedsAllPersonaFields(t *testing.T) {
	persona := testPersona()
	prompt := RenderSystemPrompt(persona)

	for _, field := range []string{persona.Nickname, persona.Name, persona.MBTI, persona.Job, persona.Personality} {
		assert.True(t, strings.Contains(prompt, field), "prompt should contain %q", field)
	}
	assert.True(t, strings.Contains(prompt, "禁止提到AI機器人"))
}
