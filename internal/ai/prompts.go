package ai

import (
	"strings"

	"jobmatch/internal/config"
)

// DefaultPromptTemplate is the recruiter instruction sent with every analysis
const DefaultPromptTemplate = `You are a Senior Technical Recruiter. Compare the CV and JD provided.
Return ONLY a valid JSON object. Do not include markdown or backticks.

JSON structure:
{
    "match_score": 60,
    "strengths": ["Directly aligns with Junior AI Engineer role", "Experience with AI/Data"],
    "missing_skills": ["Python libraries", "Cloud platforms", "Practical project experience"],
    "summary": "The candidate has a foundational interest but lacks specific technical toolsets mentioned in the JD."
}

CV: ` + config.PromptPlaceholderCV + `
JD: ` + config.PromptPlaceholderJD + `
`

// BuildPrompt embeds both texts verbatim. Placeholders are substituted in one
// pass so resume text containing "{{JD}}" is left alone.
func BuildPrompt(template, resumeText, jobText string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	return strings.NewReplacer(
		config.PromptPlaceholderCV, resumeText,
		config.PromptPlaceholderJD, jobText,
	).Replace(template)
}
