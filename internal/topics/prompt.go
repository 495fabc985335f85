package topics

import "fmt"

const promptTemplate = `You are a helpful science communicator. Explain the concept of "%s" in bioinformatics using a simple, clear analogy. The analogy should be similar in spirit to this example: "%s". Keep your explanation concise and easy for a non-expert to understand.`

// BuildPrompt returns the explain prompt for t
func BuildPrompt(t Topic) string {
	return fmt.Sprintf(promptTemplate, t.Name, t.Analogy)
}

// Title is the heading shown while an explanation loads
func Title(t Topic) string {
	return "Explaining: " + t.Name
}
