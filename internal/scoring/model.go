package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is the static, versioned catalogue of topics an article is scored
// against. Keyword and source weights are fixed per model version; the
// scorer never learns from feedback.
type Model struct {
	Version    string  `yaml:"version"`
	Saturation float64 `yaml:"saturation"`
	Topics     []Topic `yaml:"topics"`
}

// Topic couples a name with a keyword/phrase weight table and an optional
// source-affinity table. Unknown sources get a neutral multiplier of 1.0.
type Topic struct {
	Name     string             `yaml:"name"`
	Keywords map[string]float64 `yaml:"keywords"`
	Sources  map[string]float64 `yaml:"sources"`
}

// Validate reports structural problems in a model.
func (m Model) Validate() error {
	if len(m.Topics) == 0 {
		return fmt.Errorf("topic model %q has no topics", m.Version)
	}
	seen := map[string]bool{}
	for _, topic := range m.Topics {
		if topic.Name == "" {
			return fmt.Errorf("topic model %q contains an unnamed topic", m.Version)
		}
		if seen[topic.Name] {
			return fmt.Errorf("topic model %q declares topic %q twice", m.Version, topic.Name)
		}
		seen[topic.Name] = true
		if len(topic.Keywords) == 0 {
			return fmt.Errorf("topic %q has no keywords", topic.Name)
		}
	}
	return nil
}

// LoadModel reads a topic model from a YAML file.
func LoadModel(path string) (Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("read topic model: %w", err)
	}

	var model Model
	if err := yaml.Unmarshal(raw, &model); err != nil {
		return Model{}, fmt.Errorf("parse topic model %s: %w", path, err)
	}
	if model.Saturation <= 0 {
		model.Saturation = defaultSaturation
	}
	if err := model.Validate(); err != nil {
		return Model{}, err
	}
	return model, nil
}

const defaultSaturation = 6.0

// DefaultModel returns the built-in personalized catalogue used when no
// model file is configured.
func DefaultModel() Model {
	return Model{
		Version:    "builtin-2026-08",
		Saturation: defaultSaturation,
		Topics: []Topic{
			{
				Name: "artificial_intelligence",
				Keywords: map[string]float64{
					"artificial intelligence": 3.0,
					"machine learning":        3.0,
					"neural network":          2.5,
					"llm":                     2.5,
					"large language model":    2.5,
					"deep learning":           2.0,
					"transformer":             1.5,
					"openai":                  1.5,
					"anthropic":               1.5,
					"ai":                      1.0,
				},
				Sources: map[string]float64{
					"Hacker News":           1.2,
					"MIT Technology Review": 1.3,
				},
			},
			{
				Name: "cybersecurity",
				Keywords: map[string]float64{
					"vulnerability": 2.5,
					"ransomware":    2.5,
					"zero-day":      2.5,
					"data breach":   2.5,
					"exploit":       2.0,
					"malware":       2.0,
					"phishing":      1.5,
					"encryption":    1.5,
					"security":      1.0,
				},
				Sources: map[string]float64{
					"Krebs on Security": 1.5,
					"The Hacker News":   1.3,
				},
			},
			{
				Name: "european_politics",
				Keywords: map[string]float64{
					"european union":      3.0,
					"european commission": 2.5,
					"european parliament": 2.5,
					"eu":                  1.5,
					"brussels":            1.5,
					"nato":                1.5,
					"election":            1.0,
					"sanctions":           1.0,
				},
				Sources: map[string]float64{
					"Politico Europe": 1.4,
					"Euractiv":        1.3,
				},
			},
			{
				Name: "science_research",
				Keywords: map[string]float64{
					"peer-reviewed":  2.5,
					"study finds":    2.0,
					"researchers":    1.5,
					"experiment":     1.5,
					"clinical trial": 2.0,
					"nature":         1.0,
					"physics":        1.5,
					"genome":         2.0,
				},
				Sources: map[string]float64{
					"Nature":          1.5,
					"Science Daily":   1.3,
					"Quanta Magazine": 1.4,
				},
			},
			{
				Name: "software_engineering",
				Keywords: map[string]float64{
					"open source": 2.0,
					"programming": 2.0,
					"compiler":    2.0,
					"kubernetes":  1.5,
					"database":    1.5,
					"api":         1.0,
					"refactoring": 1.5,
					"rust":        1.5,
					"golang":      2.0,
					"postgresql":  1.5,
				},
				Sources: map[string]float64{
					"Hacker News": 1.3,
					"LWN":         1.4,
				},
			},
			{
				Name: "space",
				Keywords: map[string]float64{
					"spacecraft": 2.5,
					"satellite":  2.0,
					"nasa":       2.0,
					"esa":        2.0,
					"orbit":      1.5,
					"telescope":  2.0,
					"mars":       1.5,
					"launch":     1.0,
				},
			},
			{
				Name: "climate_energy",
				Keywords: map[string]float64{
					"climate change": 2.5,
					"renewable":      2.0,
					"solar power":    2.0,
					"emissions":      1.5,
					"carbon":         1.5,
					"wind energy":    2.0,
					"nuclear":        1.5,
				},
			},
			{
				Name: "economics",
				Keywords: map[string]float64{
					"inflation":     2.0,
					"interest rate": 2.0,
					"central bank":  2.0,
					"gdp":           1.5,
					"recession":     2.0,
					"stock market":  1.5,
					"unemployment":  1.5,
				},
				Sources: map[string]float64{
					"Financial Times": 1.3,
					"The Economist":   1.3,
				},
			},
			{
				Name: "health_medicine",
				Keywords: map[string]float64{
					"vaccine":       2.0,
					"cancer":        2.0,
					"alzheimer":     2.0,
					"fda":           1.5,
					"drug":          1.0,
					"therapy":       1.5,
					"public health": 2.0,
				},
			},
			{
				Name: "privacy_regulation",
				Keywords: map[string]float64{
					"gdpr":            2.5,
					"privacy":         2.0,
					"surveillance":    2.0,
					"data protection": 2.5,
					"antitrust":       2.0,
					"regulation":      1.0,
				},
			},
		},
	}
}
