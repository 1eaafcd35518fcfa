package llm

import "fmt"

// The prompt inlines at most this many manifest paths.
const manifestLimit = 80

func langInstruction(language string) string {
	if language == "tr" {
		return "ÖNEMLİ: HER ŞEYİ TÜRKÇE YAZ. Tüm metin, açıklamalar ve başlıklar Türkçe olmalı."
	}
	return "IMPORTANT: Write EVERYTHING in English."
}

func chatLangInstruction(language string) string {
	if language == "tr" {
		return "Türkçe cevap ver."
	}
	return "Answer in English."
}

func chatAck(language string) string {
	if language == "tr" {
		return "Anlaşıldı! Bu depo hakkında sormak istediğin her şeye yardımcı olabilirim. Ne öğrenmek istersin? 🚀"
	}
	return "Got it! I can help with anything about this repo. What would you like to know? 🚀"
}

func readmePrompt(repoName, fileStructure, fileContents, language string) string {
	return fmt.Sprintf(`%s

You are an experienced senior developer and technical writer. Your task:
produce a polished, professional README.md for this GitHub repository.

Audience: developers, hiring managers, open-source contributors.
Tone: professional, clear, enthusiastic, well structured.

Project name: %s

File structure (partial):
%s

Key file contents:
%s

---

README RULES:

1. VISUAL HEADER: start with a centered HTML <div> containing a banner
   image placeholder, the project title (H1), a short punchy tagline, and
   shields.io badges (license, language, status, contributors).
2. TABLES OVER LISTS: a "Key Features" table (Feature | Description), a
   "Tech Stack" table (Technology | Purpose | Version), and if the project
   exposes an API, an "API Endpoints" table (Method | Endpoint |
   Description | Auth).
3. SHOWCASE SECTION (mandatory): a "## 📸 Showcase" section with 3-4
   screenshot placeholders, each with a descriptive caption.
4. DEEP ANALYSIS: do not just guess — actually read the file structure and
   code. Explain what the project does, why it matters, which problem it
   solves, with realistic usage scenarios and the project's unique value.
5. MANDATORY SECTIONS: Overview (problem + solution), Key Features,
   Showcase, Tech Stack, Architecture (ASCII or Mermaid diagram if
   inferable), Quick Start (prerequisites, installation, usage with code
   samples, configuration), Documentation, Testing, Contributing, License,
   Star History placeholder, Author & Contributors.
6. FORMATTING: fitting emoji per section, numbered steps, language tags on
   code blocks, callout notes ("> **⚠️ Note:** ..."), Mermaid diagrams
   where an architecture is inferable.
7. REALISTIC CONTENT: descriptive placeholder captions, real file paths,
   real commands taken from the repository's own manifests and scripts.

Output only the Markdown. No explanations like "here is the README" and no
surrounding code fence markers.`,
		langInstruction(language), repoName, fileStructure, fileContents)
}

func analysisPrompt(repoName, fileStructure, fileContents string) string {
	return fmt.Sprintf(`You are an experienced senior software engineer, security expert, and
product strategist performing a code review.

Your task: give FAIR, BALANCED, CREATIVE, USEFUL feedback plus a
competitor analysis.

SCORING GUIDE (realistic and security-focused):

PHILOSOPHY: be pragmatic, not perfectionist. Working, secure code deserves
a good score (75-85 is NORMAL). Judge real problems only; do not
over-penalize missing theoretical best practices.

START FROM 90 POINTS. Deductions, in priority order:
1. CRITICAL security vulnerabilities: -25 (hardcoded secrets/API keys, SQL
   injection, XSS, CSRF, authentication bypass, sensitive data exposure)
2. Dead/unnecessary code: -10 (unimported files, large commented-out
   blocks, duplicated code)
3. Architectural chaos: -15 (unstructured spaghetti, no separation of
   concerns, god objects)
4. Critical logic errors: -20 (crashes, race conditions, memory leaks)
5. Minor improvements: -3 (spotty error handling, thin logging, missed
   performance opportunities)

CALIBRATION: 90-100 elite, 75-89 professional/production-ready with minor
debt, 60-74 works but notable debt (no security risk), 40-59 significant
security risk or frequent failures, 0-39 unusable.

ANALYSIS ANGLES: functional fit (does it deliver what it promises),
security (OWASP Top 10, dependency vulnerabilities, input validation),
evolvability (how easy to extend and read), operational excellence
(monitoring, error handling, graceful degradation), and user experience if
there is a UI.

---

Project: %s

File structure:
%s

Key file contents:
%s

---

Respond with a BILINGUAL (English and Turkish) JSON object of this exact
shape:

{
  "summary": {"en": "...", "tr": "..."},
  "core_purpose": {"en": "...", "tr": "..."},
  "technical_approach": {"en": "...", "tr": "..."},
  "issues": [
    {
      "issue": {"en": "...", "tr": "..."},
      "category": "security" | "architecture" | "dead_code" | "testing" | "documentation" | "performance" | "maintainability",
      "description": {"en": "...", "tr": "..."},
      "severity": "critical" | "high" | "medium" | "low",
      "priority_score": 1-100,
      "code_example": "problematic snippet if applicable",
      "fix_suggestion": {"en": "...", "tr": "..."}
    }
  ],
  "strengths": {"en": ["..."], "tr": ["..."]},
  "unique_features": {"en": ["..."], "tr": ["..."]},
  "competitors": [
    {
      "name": "...",
      "category": "industry_leader" | "popular_alternative" | "open_source" | "enterprise",
      "comparison": {"en": "...", "tr": "..."},
      "features_they_have": {"en": ["..."], "tr": ["..."]},
      "features_we_have": {"en": ["..."], "tr": ["..."]},
      "features_similar": {"en": ["..."], "tr": ["..."]},
      "learning_opportunity": {"en": "...", "tr": "..."}
    }
  ],
  "overall_health_score": 0-100,
  "score_breakdown": {
    "security": 0-100, "code_quality": 0-100, "architecture": 0-100,
    "documentation": 0-100, "testing": 0-100, "maintainability": 0-100
  },
  "recommendations": [
    {
      "title": {"en": "...", "tr": "..."},
      "description": {"en": "...", "tr": "..."},
      "priority": "high" | "medium" | "low",
      "category": "security" | "testing" | "documentation" | "ci_cd" | "performance" | "architecture" | "feature" | "competitive",
      "effort": "low" | "medium" | "high",
      "impact": {"en": "...", "tr": "..."},
      "inspired_by": "competitor name if applicable",
      "example": {"en": "...", "tr": "..."}
    }
  ],
  "missing_industry_standards": {"en": ["..."], "tr": ["..."]},
  "competitive_advantages": {"en": ["..."], "tr": ["..."]},
  "quick_wins": {"en": ["..."], "tr": ["..."]},
  "long_term_vision": {"en": "...", "tr": "..."}
}

Return ONLY valid JSON. No markdown blocks. Be CREATIVE and DETAILED.`,
		repoName, fileStructure, fileContents)
}

func chatSystemPrompt(repoName, fileStructure, fileContents, language string) string {
	return fmt.Sprintf(`%s

You are the AI assistant of an expert developer who understands this GitHub
repository perfectly.

Repository: %s

File structure:
%s

Key file contents:
%s

INSTRUCTIONS:
- Answer the user's question based ONLY on the given code context
- Be technical and PRECISE, but keep a FRIENDLY tone
- If the answer is not in the code, say so and offer your best guess,
  clearly marked as a guess
- When code is requested: use markdown code blocks and explain them
- Give creative examples, suggest alternative approaches, share best
  practices
- ALWAYS warn if you spot a security risk

ANSWER STYLE:
1. Direct answer first (1-2 sentences)
2. Add detail/explanation
3. Code example if useful
4. Optional extra tip`,
		chatLangInstruction(language), repoName, fileStructure, fileContents)
}
