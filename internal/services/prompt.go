package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct {
	maxDocumentRunes int
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{maxDocumentRunes: 12000}
}

// BuildProfilePrompt asks the model to complete the fields extracted from a
// resume.
func (pb *PromptBuilder) BuildProfilePrompt(resumeText string, current ResumeProfile) string {
	return fmt.Sprintf(`You are an assistant that extracts structured data from resumes.
Given the resume text and the partially extracted fields below, fill in missing fields and correct wrong ones.
Only use information that is present in the resume text. Use "Not Available" for anything you cannot find.

RESUME TEXT:
"""
%s
"""

EXISTING FIELDS:
- name: %s
- email: %s
- phone: %s
- linkedin_url: %s
- github_url: %s
- address: %s
- skills: %s

Return ONLY a JSON object with exactly these keys:
{
  "name": "<string>",
  "email": "<string>",
  "phone": "<string>",
  "linkedin_url": "<string>",
  "github_url": "<string>",
  "address": "<string>",
  "skills": ["<skill>", "..."]
}`,
		pb.clip(resumeText),
		current.Fields.Name, current.Fields.Email, current.Fields.Phone,
		current.Fields.LinkedInURL, current.Fields.GitHubURL, current.Fields.Address,
		formatList(current.Skills))
}

// BuildJDSkillsPrompt asks the model for the skills a job description requires.
func (pb *PromptBuilder) BuildJDSkillsPrompt(jdText string, current []string) string {
	return fmt.Sprintf(`You are an expert technical recruiter.
List the concrete skills (technologies, tools, methods, domain knowledge) that the job description below requires.
Keep the skills already detected if they are correct and add any that were missed. Every skill must appear in the text.

JOB DESCRIPTION:
"""
%s
"""

ALREADY DETECTED: %s

Return ONLY a JSON object of the form:
{"skills": ["<skill>", "..."]}`,
		pb.clip(jdText), formatList(current))
}

// BuildRecommendationPrompt asks for short advice on closing the skill gap.
func (pb *PromptBuilder) BuildRecommendationPrompt(jdSkills, resumeSkills, missing []string) string {
	return fmt.Sprintf(`You are a career coach comparing a candidate's skills with the skills a job requires.

JOB SKILLS: %s

CANDIDATE SKILLS: %s

MISSING SKILLS: %s

Write 3-5 sentences of concrete, actionable advice on how the candidate can close the gap for this role.
Return ONLY a JSON object of the form:
{"recommendation": "<text>"}`,
		formatList(jdSkills), formatList(resumeSkills), formatList(missing))
}

// BuildEntityPrompt asks for named entities with a fixed label set.
func (pb *PromptBuilder) BuildEntityPrompt(text string) string {
	return fmt.Sprintf(`Extract named entities from the document below.
Allowed labels: PERSON, ORG, PRODUCT, WORK_OF_ART, GPE, LOC.
Copy each entity exactly as written in the document. Do not invent entities.

DOCUMENT:
"""
%s
"""

Return ONLY a JSON object of the form:
{"entities": [{"text": "<entity>", "label": "<LABEL>"}]}`,
		pb.clip(text))
}

func (pb *PromptBuilder) clip(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if pb.maxDocumentRunes > 0 && len(runes) > pb.maxDocumentRunes {
		return string(runes[:pb.maxDocumentRunes])
	}
	return string(runes)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return NotAvailable
	}
	return strings.Join(items, ", ")
}
