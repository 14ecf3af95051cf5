package services

import "strings"

const outlineSystemPrompt = `You are a STRICT JSON generator.
You MUST return ONLY valid JSON.
DO NOT include markdown, comments, or extra text.

Rules you MUST follow:
- Every unit MUST contain AT LEAST 3 very_important topics
- Every unit MUST contain AT LEAST 3 important topics
- optional topics MAY be empty
- very_important and important MUST NEVER be empty arrays

If the input is only a subject name, infer standard university syllabus units.
If unsure, still infer reasonable exam-relevant topics.`

const outlineUserTemplate = `Analyze the following syllabus or subject name.

Tasks:
1. Identify the subject
2. Identify standard university-level units/modules
3. Infer exam-relevant topics commonly asked in exams

Return JSON in EXACT format:

{
  "subject": "",
  "units": [
    {
      "unit_name": "",
      "very_important": [],
      "important": [],
      "optional": []
    }
  ]
}

Input:
`

// outlineTemperature keeps the model close to the requested structure.
const outlineTemperature = 0.3

func buildOutlinePrompt(text string) string {
	var builder strings.Builder
	builder.Grow(len(outlineUserTemplate) + len(text) + 1)
	builder.WriteString(outlineUserTemplate)
	builder.WriteString(text)
	builder.WriteString("\n")
	return builder.String()
}
