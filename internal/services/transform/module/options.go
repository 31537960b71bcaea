package module

import (
	"time"

	"leveler/internal/platform/config"
)

// Options holds configuration settings for the transform module
type Options struct {
	TransientCap     int
	TransientBackoff time.Duration
	ScoreTimeout     time.Duration

	GenAPIKey     string
	GenBaseURL    string
	GenTimeout    time.Duration
	ModelStandard string
	ModelStrong   string

	ScoreAPIKey  string
	ScoreBaseURL string
	ScoreModel   string
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	tf := cfg.Prefix("CORE_TRANSFORM_")
	gf := cfg.Prefix("SERVICE_GENAI_")
	return Options{
		TransientCap:     tf.MayInt("TRANSIENT_CAP", 3),
		TransientBackoff: tf.MayDuration("TRANSIENT_BACKOFF", 400*time.Millisecond),
		ScoreTimeout:     tf.MayDuration("SCORE_TIMEOUT", 5*time.Second),

		GenAPIKey:     gf.MustString("API_KEY"),
		GenBaseURL:    gf.MayString("BASE_URL", ""),
		GenTimeout:    gf.MayDuration("TIMEOUT", 45*time.Second),
		ModelStandard: gf.MayString("MODEL_STANDARD", ""),
		ModelStrong:   gf.MayString("MODEL_STRONG", ""),

		ScoreAPIKey:  gf.MayString("SCORE_API_KEY", ""),
		ScoreBaseURL: gf.MayString("SCORE_BASE_URL", ""),
		ScoreModel:   gf.MayString("SCORE_MODEL", ""),
	}
}
