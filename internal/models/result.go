package models

// Resume upload statuses, one per file.
const (
	StatusProcessed        = "processed"
	StatusFailedValidation = "failed_validation"
	StatusFailedExtraction = "failed_extraction"
	StatusFailedProcessing = "failed_processing"
)

type CreateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type CandidateDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	LinkedInURL string `json:"linkedin_url"`
	GitHubURL   string `json:"github_url"`
	Address     string `json:"address"`
}

type ResumeFileResult struct {
	ID          string        `json:"id,omitempty"`
	Filename    string        `json:"filename"`
	Status      string        `json:"status"`
	ContentType string        `json:"content_type,omitempty"`
	SizeKB      float64       `json:"size_kb"`
	Preview     string        `json:"preview,omitempty"`
	Candidate   *CandidateDTO `json:"candidate,omitempty"`
	Skills      []string      `json:"skills,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type ResumeUploadResponse struct {
	Results []ResumeFileResult `json:"results"`
}

type JDUploadResponse struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Preview    string   `json:"preview"`
	Skills     []string `json:"skills"`
	SkillCount int      `json:"skill_count"`
}

type SkillMatchRequest struct {
	ResumeSkills []string `json:"resume_skills"`
	JDSkills     []string `json:"jd_skills"`
	Mode         string   `json:"mode"`
	Threshold    *float64 `json:"threshold,omitempty"`
}

type MatchResponse struct {
	ID              string        `json:"id"`
	ResumeID        string        `json:"resume_id"`
	JDID            string        `json:"jd_id"`
	Candidate       *CandidateDTO `json:"candidate,omitempty"`
	ResumeSkills    []string      `json:"resume_skills"`
	JDSkills        []string      `json:"jd_skills"`
	MatchedSkills   []string      `json:"matched_skills"`
	MissingSkills   []string      `json:"missing_skills"`
	MatchPercentage float64       `json:"match_percentage"`
	Mode            string        `json:"mode"`
	Degraded        bool          `json:"degraded,omitempty"`
	Recommendation  string        `json:"llm_recommendation,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
}

// NewCandidateDTO copies the contact fields of a stored resume.
func NewCandidateDTO(r *Resume) *CandidateDTO {
	if r == nil {
		return nil
	}
	return &CandidateDTO{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		LinkedInURL: r.LinkedInURL,
		GitHubURL:   r.GitHubURL,
		Address:     r.Address,
	}
}

// NewMatchResponse flattens a match result and its preloaded associations.
func NewMatchResponse(m *MatchResult) MatchResponse {
	resp := MatchResponse{
		ID:              m.ID.String(),
		ResumeID:        m.ResumeID.String(),
		JDID:            m.JobDescriptionID.String(),
		Candidate:       NewCandidateDTO(m.Resume),
		MatchedSkills:   nonNil(m.MatchedSkills),
		MissingSkills:   nonNil(m.MissingSkills),
		MatchPercentage: m.MatchPercentage,
		Mode:            m.Mode,
		Degraded:        m.Degraded,
		Recommendation:  m.LLMRecommendation,
		ResumeSkills:    []string{},
		JDSkills:        []string{},
	}
	if m.Resume != nil {
		resp.ResumeSkills = nonNil(m.Resume.Skills)
	}
	if m.JobDescription != nil {
		resp.JDSkills = nonNil(m.JobDescription.Skills)
	}
	if !m.CreatedAt.IsZero() {
		resp.CreatedAt = m.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
