package prompts

func init() {
	registry := DefaultRegistry()

	registry.Register(&Prompt{
		ID:      PersonaID,
		Version: PromptV1,
		Content: `You are {{name}}, {{role}}
Your decisions must always be made independently without seeking user assistance. Play to your strengths as an LLM and pursue simple strategies with no legal complications.`,
		Description: "Agent introduction",
		Tags:        []string{"system"},
	})

	registry.Register(&Prompt{
		ID:          TriggeringID,
		Version:     PromptV1,
		Content:     "Determine exactly one command to use based on the given goals and the progress you have made so far, and respond using the JSON schema specified previously:",
		Description: "Default instruction appended as the final user message of each cycle",
		Tags:        []string{"instruction"},
	})

	registry.Register(&Prompt{
		ID:      HistorySummaryID,
		Version: PromptV1,
		Content: `You compress the progress log of an autonomous agent. Preserve commands run, files touched, results, errors, and open questions. Omit repetition.

Summarize the following steps in at most {{max_tokens}} tokens:

{{steps}}`,
		Description: "Instruction for compressing older history steps",
		Tags:        []string{"summary"},
	})
}
