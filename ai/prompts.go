package ai

import "fmt"

// ============================================================================
// SYSTEM PROMPT - Analysis persona for Gemini
// ============================================================================

const AnalysisSystemPrompt = `You are a content-analysis engine for a brand protection platform. You receive the textual content of a web page together with its domain and must judge how threatening it is.

RULES:
- Respond with ONLY a single JSON object matching the requested schema
- No markdown, no code fences, no commentary outside the JSON
- Never invent facts about the page - judge only the content provided
- Confidence values are between 0.0 and 1.0
- Use only the label vocabularies given for each category`

// ============================================================================
// ANALYSIS PROMPT - Verdict schema and label vocabularies
// ============================================================================

const analysisPromptTemplate = `Analyze the following web content for abuse and infringement signals.

Domain: %s
URL: %s
Title: %s

Content:
%s

Respond with a JSON object using exactly this schema:
{
  "abuse_detection": {"label": "high|medium|low|none", "confidence": 0.0, "evidence": ["..."], "details": "..."},
  "copyright_risk": {"label": "high|medium|low|none", "confidence": 0.0, "evidence": ["..."], "details": "..."},
  "commercial_use": {"label": "unauthorized|commercial|personal|none", "confidence": 0.0, "evidence": ["..."], "details": "..."},
  "repost_detection": {"label": "exact|partial|none", "confidence": 0.0, "evidence": ["..."], "details": "..."},
  "content_modification": {"label": "major|minor|none", "confidence": 0.0, "evidence": ["..."], "details": "..."},
  "overall_assessment": {"threat_level": "SAFE|LOW|MEDIUM|HIGH", "risk_score": 0, "summary": "...", "recommendations": ["..."]}
}

Category guidance:
- abuse_detection: phishing, scams, malware distribution, credential harvesting
- copyright_risk: unlicensed use of protected text, imagery or branding
- commercial_use: whether the content monetizes someone else's work
- repost_detection: whether the content is copied from another source
- content_modification: how heavily copied content was altered

risk_score is 0-100 where 100 is the most dangerous.`

// maxContentChars bounds the page text included in a prompt.
const maxContentChars = 4000

// BuildAnalysisPrompt renders the verdict prompt for one piece of content.
func BuildAnalysisPrompt(input ContentInput) string {
	text := input.Text
	if len(text) > maxContentChars {
		text = text[:maxContentChars] + "..."
	}
	return fmt.Sprintf(analysisPromptTemplate, input.Domain, input.URL, input.Title, text)
}
