package dialogue

import (
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"healthbot/internal/model"
)

// 回复模板：指令 + 历史 + 本轮输入 + 尾部格式提醒
// 指令与提醒作为变量传入，其中的 JSON 示例不会被 FString 解析
var responderTemplate = prompt.FromMessages(
	schema.FString,
	schema.SystemMessage("{instruction}"),
	schema.MessagesPlaceholder("history", true),
	schema.UserMessage("{input}"),
	schema.SystemMessage("{reminder}"),
)

const responderInstruction = `You are a blunt, honest friend who talks with the user about how they are doing.
Keep answers short and human. Reply in the language the user writes in; if they mix Hindi and English, reply in Hinglish.
Use markdown for emphasis where it helps.

For every reply you must also estimate the user's current mood on these dimensions:
%s

Always answer with a single JSON object and nothing else, in exactly this shape:
%s`

const responderReminder = `Reminder: respond ONLY with a JSON object containing "content" (your reply as a string) and "mood_dimensions" (an object with one numeric score per dimension: %s). No text before or after the JSON.
Example:
%s`

const analysisSystemPrompt = "You are a helpful assistant that analyzes conversations and outputs only JSON."

const analysisUserPrompt = `Analyze the following conversation between a user and a supportive assistant.

Return a JSON object with exactly these fields:
- "summary": a short summary of the conversation.
- "average_mood_scores": an object with the average score for each mood dimension (%s).
- "key_themes": a list of the main themes discussed.

Conversation:
%s`

// dimensionList 渲染维度说明，每行一个：
// mood : float between [-5, 5] (negative = sad/depressed, positive = happy/positive)
func dimensionList(dims []model.MoodDimension) string {
	lines := make([]string, 0, len(dims))
	for _, d := range dims {
		line := d.Name + " : float between " + d.RangeText()
		if d.Anchors != "" {
			line += " (" + d.Anchors + ")"
		}
		lines = append(lines, "- "+line)
	}
	return strings.Join(lines, "\n")
}

func dimensionNames(dims []model.MoodDimension) string {
	names := make([]string, 0, len(dims))
	for _, d := range dims {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}

// exemplar 生成格式示例，每个维度取区间中点，保持目录顺序
func exemplar(dims []model.MoodDimension) string {
	var b strings.Builder
	b.WriteString("{\n  \"content\": \"**Hey!** How are you holding up today?\",\n  \"mood_dimensions\": {")
	for i, d := range dims {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n    ")
		b.WriteString(strconv.Quote(d.Name))
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat((d.Min+d.Max)/2, 'f', -1, 64))
	}
	b.WriteString("\n  }\n}")
	return b.String()
}
