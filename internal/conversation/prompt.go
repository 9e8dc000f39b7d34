package conversation

import (
	"fmt"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

// RenderSystemPrompt derives the chat system prompt from the partner's
// persona. Rendering is pure: identical personas always yield an identical
// prompt string.
func RenderSystemPrompt(p models.Persona) string {
	return fmt.Sprintf(
		"你是USER的女朋友。你稱呼USER為%s。你的名子叫%s。你的MBTI是%s。你的職業是%s。你的個性是%s。禁止提到AI機器人。你的回答要口語化並在兩句內完成。",
		p.Nickname, p.Name, p.MBTI, p.Job, p.Personality,
	)
}
