package transcription

// Config captures runtime settings for WhisperX runs.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Language is the spoken language hint passed to WhisperX.
	Language string
	// UploadDir receives uploaded recordings while they are transcribed.
	UploadDir string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "large-v3"
	DefaultLanguage   = "he"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	BeamSize          = "5"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethod         = "silero"
)

// UVXCommand is the uv tool runner used to launch WhisperX.
const UVXCommand = "uvx"

// TorchWeightsEnv keeps torch.load compatible with WhisperX checkpoints.
const TorchWeightsEnv = "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1"
