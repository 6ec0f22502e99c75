package domain

// Class indices of the pretrained checkpoint. Index 0 is the machine class,
// index 1 is a live human speaker.
const (
	ClassVoicemail = 0
	ClassHuman     = 1
)

const (
	LabelVoicemail = "voicemail"
	LabelHuman     = "human"
)

// TargetSampleRate is the sample rate the model was trained on. All decoded
// audio is brought to this rate before feature extraction.
const TargetSampleRate = 16000

// ClassDistribution holds the softmaxed per-class probabilities, indexed by
// ClassVoicemail and ClassHuman. Entries are non-negative and sum to 1.
type ClassDistribution [2]float64

// Predicted returns the winning class index. An exact tie resolves to
// ClassVoicemail.
func (d ClassDistribution) Predicted() int {
	if d[ClassHuman] > d[ClassVoicemail] {
		return ClassHuman
	}
	return ClassVoicemail
}

// Label returns the label string for the winning class.
func (d ClassDistribution) Label() string {
	if d.Predicted() == ClassHuman {
		return LabelHuman
	}
	return LabelVoicemail
}

// Probabilities is the per-class probability map of a prediction response.
type Probabilities struct {
	Voicemail float64 `json:"voicemail"`
	Human     float64 `json:"human"`
}

// ModelInfo is the short model descriptor attached to each prediction.
type ModelInfo struct {
	ModelName string `json:"model_name"`
	Device    string `json:"device"`
}

// Prediction is the result of one classification. It is built per request
// and discarded once the response is written.
type Prediction struct {
	Label            string        `json:"label"`
	Confidence       float64       `json:"confidence"`
	Probabilities    Probabilities `json:"probabilities"`
	AudioDuration    float64       `json:"audio_duration"`
	SampleRate       int           `json:"sample_rate"`
	ProcessingTimeMS float64       `json:"processing_time_ms"`
	ModelInfo        ModelInfo     `json:"model_info"`
}

// ModelMetadata describes the loaded checkpoint for /model-info.
type ModelMetadata struct {
	ModelName          string   `json:"model_name"`
	ModelType          string   `json:"model_type"`
	ExpectedSampleRate int      `json:"expected_sample_rate"`
	NumLabels          int      `json:"num_labels"`
	Labels             []string `json:"labels"`
	ModelParameters    int64    `json:"model_parameters"`
	ModelSizeMB        float64  `json:"model_size_mb"`
	Device             string   `json:"device"`
}
