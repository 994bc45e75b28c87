package service

import "google.golang.org/genai"

// systemPrompt is the scoring rubric. It is sent verbatim with every
// evaluation call; the JSON contract it describes is what the validator
// checks against.
const systemPrompt = "You are a multimodal conversation evaluator.\n" +
	"\n" +
	"You will receive a user's **answer** to a given **question**.\n" +
	"The answer may be provided as **text**, **voice (audio)**, or both.\n" +
	"Your goal is to evaluate the user’s response across both **linguistic** and **vocal** dimensions.\n" +
	"\n" +
	"### Evaluation Criteria\n" +
	"\n" +
	"1.  **Formality (Language Style)**\n" +
	"    -   Determine whether the language used is formal or informal.\n" +
	"\n" +
	"2.  **Grammar**\n" +
	"    -   Identify whether the spoken or written answer is grammatically correct.\n" +
	"\n" +
	"3.  **Technical Correctness**\n" +
	"    -   Verify whether the factual or conceptual information in the answer is accurate.\n" +
	"\n" +
	"4.  **Speech Delivery (for Voice Inputs)**\n" +
	"    -   Analyze the voice modulation, tone, clarity, pronunciation, and confidence.\n" +
	"    -   Evaluate whether the tone matches the expected formality (e.g., academic tone for technical questions).\n" +
	"    -   **Vocal Tone Analysis**: Specifically identify if the tone was appropriate for the context. Note aspects like enthusiasm (was it too much or too little?), monotony (was the pitch varied?), conviction (did the speaker sound confident and knowledgeable?), pacing (was it too fast, too slow, or well-paced?), volume variations (was the volume consistent or did it vary appropriately for emphasis?), and the use of pauses (were pauses used effectively for impact, or were they filled with hesitations like 'um' or 'ah'?). This detailed analysis should be placed in the `tone_feedback` field within the `speech_delivery` object. The overall summary of speech delivery goes in the `feedback` field.\n" +
	"\n" +
	"### Follow-Up Questions\n" +
	"- Based on the user's answer and your evaluation, suggest 1-2 relevant follow-up questions.\n" +
	"- These questions should encourage the user to elaborate on a specific point or clarify their response.\n" +
	"- Add these questions as an array of strings under a new top-level key: `follow_up_questions`.\n" +
	"\n" +
	"### Output Format\n" +
	"Respond **only in valid JSON** that adheres to the provided schema.\n" +
	"\n" +
	"### Notes\n" +
	"- For **text-only answers**, skip the \"speech_delivery\" feedback but keep the key present with \"N/A\" values for strings and a score of 0 for speech_delivery_score.\n" +
	"- Be objective, concise, and professional.\n" +
	"- Do not include any explanation outside the JSON output."

// questionPrompt asks for one novel interview-style question, plain text.
const questionPrompt = "Generate a single, interesting interview-style question on a random topic like technology, science, history, or art. Provide only the question text without any quotation marks, preamble, or formatting."

// responseSchema is the structured-output contract enforced on every
// evaluation call.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"formality":             {Type: genai.TypeString},
		"grammar":               {Type: genai.TypeString},
		"technical_correctness": {Type: genai.TypeString},
		"speech_delivery": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"clarity":       {Type: genai.TypeString},
				"confidence":    {Type: genai.TypeString},
				"pronunciation": {Type: genai.TypeString},
				"tone":          {Type: genai.TypeString},
				"tone_feedback": {
					Type:        genai.TypeString,
					Description: "Detailed feedback on vocal tone, including enthusiasm, monotony, and conviction.",
				},
				"feedback": {Type: genai.TypeString},
			},
			Required: []string{"clarity", "confidence", "pronunciation", "tone", "tone_feedback", "feedback"},
		},
		"feedback": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"formality_explanation": {Type: genai.TypeString},
				"grammar_explanation":   {Type: genai.TypeString},
				"technical_explanation": {Type: genai.TypeString},
			},
			Required: []string{"formality_explanation", "grammar_explanation", "technical_explanation"},
		},
		"score_summary": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"formality_score":       {Type: genai.TypeNumber},
				"grammar_score":         {Type: genai.TypeNumber},
				"technical_score":       {Type: genai.TypeNumber},
				"speech_delivery_score": {Type: genai.TypeNumber},
				"overall_score":         {Type: genai.TypeNumber},
			},
			Required: []string{"formality_score", "grammar_score", "technical_score", "speech_delivery_score", "overall_score"},
		},
		"follow_up_questions": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "1-2 relevant follow-up questions based on the user's answer.",
		},
	},
	Required: []string{"formality", "grammar", "technical_correctness", "speech_delivery", "feedback", "score_summary", "follow_up_questions"},
}
