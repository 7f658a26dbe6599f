package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reelsmith/internal/config"
	"reelsmith/internal/content"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/workflow"
)

// requestFlags collects the pipeline input shared by run, analyze, prompt
// and submit.
type requestFlags struct {
	kind pipeline.Kind

	requestFile   string
	blueprintFile string

	videoURL    string
	images      []string
	description string
	context     content.ProductContext

	videoModel    string
	videoDuration int
	aspectRatio   string
	imageToVideo  bool
	imageIndex    int
	noMechanics   bool
	keepTemp      bool
	timeout       int
}

func bindRequestFlags(cmd *cobra.Command, kind pipeline.Kind) *requestFlags {
	f := &requestFlags{kind: kind}
	flags := cmd.Flags()
	flags.StringVar(&f.requestFile, "request", "", "YAML or JSON file holding the full request")

	if kind != pipeline.KindPrompt {
		flags.StringVarP(&f.videoURL, "url", "u", "", "Reference video URL")
	}
	if kind != pipeline.KindAnalysis {
		flags.StringArrayVarP(&f.images, "image", "i", nil, "Product image URL or data URI (repeatable)")
		flags.StringVarP(&f.description, "description", "d", "", "Product description")
		flags.StringVar(&f.context.Type, "product-type", "", "Product type, for example 'fidget toy'")
		flags.StringSliceVar(&f.context.Interactions, "interaction", nil, "How hands interact with the product")
		flags.StringSliceVar(&f.context.TactileFeatures, "tactile", nil, "Tactile features to show")
		flags.StringSliceVar(&f.context.SoundFeatures, "sound", nil, "Sounds the product makes")
		flags.StringVar(&f.context.SizeDescription, "size", "", "Size description")
		flags.StringVar(&f.context.HighlightFeature, "highlight", "", "Feature to highlight")
		flags.StringVar(&f.context.CustomInstructions, "instructions", "", "Extra instructions for the prompt writer")
		flags.BoolVar(&f.noMechanics, "no-mechanics", false, "Skip the product mechanics step")
	}
	if kind == pipeline.KindPrompt {
		flags.StringVar(&f.blueprintFile, "blueprint", "", "Blueprint YAML or JSON from an earlier analysis")
	}
	if kind == pipeline.KindFull {
		flags.StringVar(&f.videoModel, "model", "", "Video model (sora or kling)")
		flags.IntVar(&f.videoDuration, "duration", 0, "Generated video duration in seconds")
		flags.StringVar(&f.aspectRatio, "aspect-ratio", "", "Aspect ratio (9:16, 16:9 or 1:1)")
		flags.BoolVar(&f.imageToVideo, "i2v", false, "Animate a product image instead of text-to-video")
		flags.IntVar(&f.imageIndex, "i2v-image", 0, "Index of the product image used for image-to-video")
	}
	flags.BoolVar(&f.keepTemp, "keep-temp", false, "Keep downloaded video, audio and frames")
	flags.IntVar(&f.timeout, "timeout", 0, "Per-operation timeout in seconds")
	return f
}

// build assembles the request. Flags override values from --request; run
// settings pin a copy of the configured defaults only when one was given.
func (f *requestFlags) build(cmd *cobra.Command, cfg *config.Config) (workflow.Request, error) {
	var req workflow.Request
	if f.requestFile != "" {
		if err := readYAMLFile(f.requestFile, &req); err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
	}
	changed := cmd.Flags().Changed

	if changed("url") {
		req.VideoURL = strings.TrimSpace(f.videoURL)
	}
	if changed("image") {
		req.ProductImages = f.images
	}
	if changed("description") {
		req.ProductDescription = strings.TrimSpace(f.description)
	}
	mergeContext(&req.ProductContext, f.context)
	if f.blueprintFile != "" {
		bp, err := readBlueprint(f.blueprintFile)
		if err != nil {
			return req, fmt.Errorf("read blueprint: %w", err)
		}
		req.Blueprint = bp
	}

	overrides := []string{"model", "duration", "aspect-ratio", "i2v", "i2v-image", "no-mechanics", "keep-temp", "timeout"}
	pinned := false
	for _, name := range overrides {
		if cmd.Flags().Lookup(name) != nil && changed(name) {
			pinned = true
			break
		}
	}
	if pinned {
		runCfg := req.RunConfig(cfg)
		if changed("model") {
			runCfg.VideoModel = strings.ToLower(strings.TrimSpace(f.videoModel))
		}
		if changed("duration") {
			runCfg.VideoDuration = f.videoDuration
		}
		if changed("aspect-ratio") {
			runCfg.AspectRatio = strings.TrimSpace(f.aspectRatio)
		}
		if changed("i2v") {
			runCfg.UseImageToVideo = f.imageToVideo
		}
		if changed("i2v-image") {
			runCfg.I2VImageIndex = f.imageIndex
		}
		if changed("no-mechanics") {
			runCfg.EnableMechanics = !f.noMechanics
		}
		if changed("keep-temp") {
			runCfg.KeepTempFiles = f.keepTemp
		}
		if changed("timeout") {
			runCfg.TimeoutSeconds = f.timeout
		}
		req.Config = &runCfg
	}

	if err := req.Validate(f.kind); err != nil {
		return req, err
	}
	return req, nil
}

func mergeContext(dst *content.ProductContext, src content.ProductContext) {
	if src.Type != "" {
		dst.Type = src.Type
	}
	if len(src.Interactions) > 0 {
		dst.Interactions = src.Interactions
	}
	if len(src.TactileFeatures) > 0 {
		dst.TactileFeatures = src.TactileFeatures
	}
	if len(src.SoundFeatures) > 0 {
		dst.SoundFeatures = src.SoundFeatures
	}
	if src.SizeDescription != "" {
		dst.SizeDescription = src.SizeDescription
	}
	if src.HighlightFeature != "" {
		dst.HighlightFeature = src.HighlightFeature
	}
	if src.CustomInstructions != "" {
		dst.CustomInstructions = src.CustomInstructions
	}
}

// readYAMLFile decodes a YAML document. JSON is valid YAML, so analysis
// results saved with --output load too.
func readYAMLFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// readBlueprint accepts a bare blueprint or a saved analysis outcome that
// carries one under "blueprint".
func readBlueprint(path string) (*content.Blueprint, error) {
	var wrapped struct {
		Blueprint *content.Blueprint `yaml:"blueprint"`
	}
	if err := readYAMLFile(path, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Blueprint != nil {
		return wrapped.Blueprint, nil
	}
	var bp content.Blueprint
	if err := readYAMLFile(path, &bp); err != nil {
		return nil, err
	}
	if bp.IsZero() {
		return nil, fmt.Errorf("%s holds no blueprint", path)
	}
	return &bp, nil
}
