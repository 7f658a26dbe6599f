package pipeline

import "reelsmith/internal/graph"

// State keys shared by the pipeline nodes.
const (
	KeyVideoURL           = "video_url"
	KeyVideoPath          = "video_path"
	KeyProductImages      = "product_images"
	KeyProductDescription = "product_description"
	KeyProductContext     = "product_context"
	KeyConfig             = "config"

	KeyAudioPath      = "audio_path"
	KeyTranscript     = "transcript"
	KeyFrames         = "frames"
	KeyVisualAnalysis = "visual_analysis"
	KeyPacing         = "pacing"

	KeyBlueprint        = "blueprint"
	KeyBlueprintSummary = "blueprint_summary"
	KeyProductAnalysis  = "product_analysis"

	KeyBasePrompt        = "base_prompt"
	KeySuggestedScript   = "suggested_script"
	KeyMechanicsPrompt   = "mechanics_prompt"
	KeyMechanicsTimeline = "mechanics_timeline"
	KeyFinalPrompt       = "final_prompt"
	KeyPromptMetadata    = "prompt_metadata"

	KeyI2VImageURL       = "i2v_image_url"
	KeyGeneratedVideoURL = "generated_video_url"
	KeyVideoCostUSD      = "video_cost_usd"
	KeyVideoMetadata     = "video_metadata"

	KeyJobID        = graph.KeyJobID
	KeyStatus       = "status"
	KeyCurrentStep  = graph.KeyCurrentStep
	KeyStepNumber   = graph.KeyStepNumber
	KeyTotalSteps   = graph.KeyTotalSteps
	KeyProgress     = "progress"
	KeyError        = graph.KeyError
	KeyErrorDetails = "error_details"
	KeyWarnings     = "warnings"
	KeyStartedAt    = "started_at"
	KeyCompletedAt  = "completed_at"
	KeyTempFiles    = "temp_files"
)

// Node names.
const (
	NodeDownloadVideo     = "download_video"
	NodeExtractAudio      = "extract_audio"
	NodeTranscribe        = "transcribe"
	NodeExtractFrames     = "extract_frames"
	NodeAnalyzeVisuals    = "analyze_visuals"
	NodeGenerateBlueprint = "generate_blueprint"
	NodeAnalyzeProduct    = "analyze_product"
	NodeBasePrompt        = "generate_base_prompt"
	NodeMechanics         = "generate_mechanics"
	NodeFinalizePrompt    = "finalize_prompt"
	NodeGenerateVideo     = "generate_video"
)

// Status values written to the state's status field.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Router labels used by the prompt phase.
const (
	LabelProduct   = "product"
	LabelPrompt    = "prompt"
	LabelMechanics = "mechanics"
	LabelFinalize  = "finalize"
)

// Prompt sources recorded in prompt_metadata.
const (
	SourceMechanics = "mechanics"
	SourceBase      = "base"
	SourceFallback  = "fallback"
)

// MaxProductImages bounds the product images a seed accepts.
const MaxProductImages = 10
