package models

import "sort"

// Localized is a bilingual text value. The analysis prompt requests every
// human-readable field in both English and Turkish.
type Localized struct {
	EN string `json:"en"`
	TR string `json:"tr"`
}

// LocalizedList is a bilingual list of text values.
type LocalizedList struct {
	EN []string `json:"en"`
	TR []string `json:"tr"`
}

// Issue is one scored finding in an analysis.
type Issue struct {
	Issue         Localized `json:"issue"`
	Category      string    `json:"category"`
	Description   Localized `json:"description"`
	Severity      string    `json:"severity"`
	PriorityScore int       `json:"priority_score"`
	CodeExample   string    `json:"code_example,omitempty"`
	FixSuggestion Localized `json:"fix_suggestion"`
}

// Competitor compares the analyzed project against a similar tool.
type Competitor struct {
	Name                string        `json:"name"`
	Category            string        `json:"category"`
	Comparison          Localized     `json:"comparison"`
	FeaturesTheyHave    LocalizedList `json:"features_they_have"`
	FeaturesWeHave      LocalizedList `json:"features_we_have"`
	FeaturesSimilar     LocalizedList `json:"features_similar"`
	LearningOpportunity Localized     `json:"learning_opportunity"`
}

// Recommendation is one prioritized action item.
type Recommendation struct {
	Title       Localized `json:"title"`
	Description Localized `json:"description"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Effort      string    `json:"effort"`
	Impact      Localized `json:"impact"`
	InspiredBy  string    `json:"inspired_by,omitempty"`
	Example     Localized `json:"example"`
}

// ScoreBreakdown holds per-dimension sub-scores on [0,100].
type ScoreBreakdown struct {
	Security        int `json:"security"`
	CodeQuality     int `json:"code_quality"`
	Architecture    int `json:"architecture"`
	Documentation   int `json:"documentation"`
	Testing         int `json:"testing"`
	Maintainability int `json:"maintainability"`
}

// AnalysisResult is the structured quality report for one repository.
// The scores are whatever the model produced; only the shape and the issue
// ordering are guaranteed by the dispatcher.
type AnalysisResult struct {
	Summary                  Localized        `json:"summary"`
	CorePurpose              Localized        `json:"core_purpose"`
	TechnicalApproach        Localized        `json:"technical_approach"`
	Issues                   []Issue          `json:"issues"`
	Strengths                LocalizedList    `json:"strengths"`
	UniqueFeatures           LocalizedList    `json:"unique_features"`
	Competitors              []Competitor     `json:"competitors"`
	OverallHealthScore       int              `json:"overall_health_score"`
	ScoreBreakdown           ScoreBreakdown   `json:"score_breakdown"`
	Recommendations          []Recommendation `json:"recommendations"`
	MissingIndustryStandards LocalizedList    `json:"missing_industry_standards"`
	CompetitiveAdvantages    LocalizedList    `json:"competitive_advantages"`
	QuickWins                LocalizedList    `json:"quick_wins"`
	LongTermVision           Localized        `json:"long_term_vision"`
	Error                    string           `json:"error,omitempty"`
}

// Normalize enforces the structural guarantees callers rely on: issues
// sorted by priority_score descending (stable on ties) and nil slices
// replaced with empty ones so the result always marshals to arrays.
func (a *AnalysisResult) Normalize() {
	sort.SliceStable(a.Issues, func(i, j int) bool {
		return a.Issues[i].PriorityScore > a.Issues[j].PriorityScore
	})

	if a.Issues == nil {
		a.Issues = []Issue{}
	}
	if a.Competitors == nil {
		a.Competitors = []Competitor{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []Recommendation{}
	}
	a.Strengths.fill()
	a.UniqueFeatures.fill()
	a.MissingIndustryStandards.fill()
	a.CompetitiveAdvantages.fill()
	a.QuickWins.fill()
}

func (l *LocalizedList) fill() {
	if l.EN == nil {
		l.EN = []string{}
	}
	if l.TR == nil {
		l.TR = []string{}
	}
}

// DegradedAnalysis returns a schema-valid empty report carrying an error
// message, used when the model's output cannot be parsed. The dashboard
// must always receive something renderable.
func DegradedAnalysis(msg string) *AnalysisResult {
	a := &AnalysisResult{
		Summary: Localized{
			EN: "Analysis failed: " + msg,
			TR: "Analiz başarısız: " + msg,
		},
		Error: msg,
	}
	a.Normalize()
	return a
}
