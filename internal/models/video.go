package models

// VideoReference is a validated pointer to a YouTube video.
type VideoReference struct {
	Raw          string
	VideoID      string
	CanonicalURL string
}

// AnalysisResult is the record returned to the caller and persisted to disk.
// SectionBreakdown holds the model text as-is; it is not parsed.
type AnalysisResult struct {
	SectionBreakdown string `json:"section_breakdown"`
	YouTubeURL       string `json:"youtube_url"`
	ModelName        string `json:"model_name"`
}

// Record flattens the result into the key/value form written to data.json.
func (r *AnalysisResult) Record() map[string]string {
	return map[string]string{
		"section_breakdown": r.SectionBreakdown,
		"youtube_url":       r.YouTubeURL,
		"model_name":        r.ModelName,
	}
}
