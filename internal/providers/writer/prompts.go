package writer

import (
	"fmt"
	"strings"

	"blogsmith/internal/domain"
)

func buildTitlePrompt(idea string) string {
	return fmt.Sprintf("You're a blog title strategist. Given the raw idea: %q, generate a catchy and trending blog title that feels fresh and aligns with current online trends. Do not use hashtags or dates unless needed.", idea)
}

func buildDraftSystemPrompt(tone domain.Tone, settings domain.BlogSettings) string {
	length := settings.Length
	target := length.Target()
	sb := &strings.Builder{}
	sb.WriteString("You are an expert tech blogger.\n")
	fmt.Fprintf(sb, "Write %s-length, structured HTML blog content with the following:\n\n", length)
	fmt.Fprintf(sb, "- Length: %d words (%s length)\n", target.Words, length)
	fmt.Fprintf(sb, "- Tone: %s\n", tone)
	sb.WriteString("- HTML format: <h2>, <p>, <ul>, <strong>, etc.\n")
	sb.WriteString("- No <html> or <body> tags, just the content\n")
	sb.WriteString("- Use storytelling, analogies, examples to enrich the content\n")
	sb.WriteString(structureInstructions(settings))
	sb.WriteString("\nStructure the content appropriately based on the settings provided.\n")
	sb.WriteString("You must:\n")
	sb.WriteString("- Use <h2>, <p>, <ul>, <strong>, etc.\n")
	fmt.Fprintf(sb, "- Follow the tone: %s\n", tone)
	sb.WriteString("- Add examples, storytelling, improved structure and transitions\n")
	fmt.Fprintf(sb, "- Target length: %d words\n", target.Words)
	sb.WriteString("- Output must NOT include <html> or <body> tags, only the content\n")
	sb.WriteString("- Make sure to add proper spacing between sections\n")
	return sb.String()
}

func structureInstructions(settings domain.BlogSettings) string {
	sb := &strings.Builder{}
	if settings.IncludeHeadings {
		sb.WriteString("- Use <h2> tags for main section headings\n")
		sb.WriteString("- Structure the content with clear sections\n")
		sb.WriteString("- Each section should have a descriptive heading\n")
	}
	if settings.IncludeConclusion {
		sb.WriteString("- Include a conclusion section at the end\n")
		sb.WriteString("- Summarize key points and provide a call to action\n")
	}
	return sb.String()
}

func buildDraftUserPrompt(title string, length domain.Length) string {
	return fmt.Sprintf("Write a %s-length blog post on the topic: %q.", length, title)
}

func buildEvaluateSystemPrompt(tone domain.Tone) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a strict blog editor. Rate the HTML blog post you are given on a scale from 0 to 10 ")
	fmt.Fprintf(sb, "for clarity, structure, depth, originality and how well it keeps a %s tone. ", tone)
	sb.WriteString(`Respond strictly with JSON matching this schema: {"score":integer,"review":string}. `)
	sb.WriteString("The review must list concrete improvements in at most five sentences.")
	return sb.String()
}

func buildRewriteSystemPrompt(tone domain.Tone, settings domain.BlogSettings) string {
	target := settings.Length.Target()
	sb := &strings.Builder{}
	sb.WriteString("You are an expert tech blogger revising a draft using editor feedback.\n")
	fmt.Fprintf(sb, "- Tone: %s\n", tone)
	fmt.Fprintf(sb, "- Target length: at least %d words\n", target.Words)
	sb.WriteString("- Keep HTML format: <h2>, <p>, <ul>, <strong>, etc.\n")
	sb.WriteString("- Output must NOT include <html> or <body> tags, only the content\n")
	sb.WriteString(structureInstructions(settings))
	return sb.String()
}

func buildRewriteUserPrompt(title, review, draft string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Title: %q\n\n", title)
	fmt.Fprintf(sb, "Editor feedback:\n%s\n\n", strings.TrimSpace(review))
	sb.WriteString("Rewrite the following blog post so it addresses every point of the feedback:\n\n")
	sb.WriteString(draft)
	return sb.String()
}
