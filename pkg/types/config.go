package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	// arXiv asks for a contact address in it (e.g. "statpaper/0.1 (mailto:me@example.com)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// CategoryQuota pairs an arXiv category with a harvest target.
type CategoryQuota struct {
	// Category is the arXiv category code (e.g. "cs.LG").
	Category string `json:"category" yaml:"category" mapstructure:"category"`

	// Quota is the number of papers to harvest for the category.
	Quota int `json:"quota" yaml:"quota" mapstructure:"quota"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// CorpusDir is the base directory for the corpus
	// (contains pdfs/, text/, metadata/, stats/, index/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir" mapstructure:"corpus_dir"`

	// Quotas lists the categories to harvest and how many papers each
	// should contribute. Empty uses the built-in default plan.
	Quotas []CategoryQuota `json:"quotas,omitempty" yaml:"quotas,omitempty" mapstructure:"quotas,omitempty"`

	// YearsBack bounds the submittedDate window (default 5).
	YearsBack int `json:"years_back" yaml:"years_back" mapstructure:"years_back"`

	// PageSize is the arXiv API page size (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// RequestDelay is the delay between consecutive API requests (default 3s,
	// per arXiv API etiquette).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// DownloadDelay is the delay between consecutive PDF downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`
}

// ExtractConfig holds settings for the extraction stage.
type ExtractConfig struct {
	// CorpusDir is the base directory for the corpus.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir" mapstructure:"corpus_dir"`

	// Concurrency caps the number of PDFs processed in parallel (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MinSentenceLen and MaxSentenceLen bound the sentence length filter
	// used by the readability metrics (defaults 10 and 500 characters).
	MinSentenceLen int `json:"min_sentence_len" yaml:"min_sentence_len" mapstructure:"min_sentence_len"`
	MaxSentenceLen int `json:"max_sentence_len" yaml:"max_sentence_len" mapstructure:"max_sentence_len"`
}

// CorpusConfig holds settings for the corpus index.
type CorpusConfig struct {
	// CorpusDir is the base directory for the corpus.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir" mapstructure:"corpus_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ReportConfig holds settings for the report stage.
type ReportConfig struct {
	// AnalysisDir is the directory for generated reports (e.g. "analysis/").
	AnalysisDir string `json:"analysis_dir" yaml:"analysis_dir" mapstructure:"analysis_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Harvest HarvestConfig `json:"harvest" yaml:"harvest" mapstructure:"harvest"`
	Extract ExtractConfig `json:"extract" yaml:"extract" mapstructure:"extract"`
	Corpus  CorpusConfig  `json:"corpus" yaml:"corpus" mapstructure:"corpus"`
	Report  ReportConfig  `json:"report" yaml:"report" mapstructure:"report"`
}
