package models

// Company is an employer entry in the seeded market catalog.
type Company struct {
	ID       int64  `json:"id" yaml:"-"`
	Name     string `json:"name" yaml:"name"`
	Sector   string `json:"sector" yaml:"sector"`
	Location string `json:"location" yaml:"location"`
}

// SkillDemand records how sought-after a skill is on the local market.
type SkillDemand struct {
	ID           int64  `json:"id" yaml:"-"`
	Skill        string `json:"skill" yaml:"skill"`
	DemandLevel  string `json:"demand_level" yaml:"demand_level"`
	AvgSalaryDZD int    `json:"avg_salary_dzd" yaml:"avg_salary_dzd"`
}

// Resource is a curated learning resource.
type Resource struct {
	ID              int64  `json:"id" yaml:"-"`
	Title           string `json:"title" yaml:"title"`
	ResourceType    string `json:"resource_type" yaml:"resource_type"`
	Provider        string `json:"provider" yaml:"provider"`
	URL             string `json:"url" yaml:"url"`
	Difficulty      string `json:"difficulty" yaml:"difficulty"`
	Language        string `json:"language" yaml:"language"`
	DurationMinutes int    `json:"duration_minutes,omitempty" yaml:"duration_minutes"`
}
