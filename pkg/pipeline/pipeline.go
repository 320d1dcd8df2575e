// Package pipeline sequences the four stage agents: designer, architect,
// coder, reviewer. Stages run strictly in order; each declares the
// artifacts it needs, and a stage never starts unless every upstream
// artifact exists and the previous stage succeeded.
package pipeline

import (
	"fmt"
)

// Stage names, in execution order.
const (
	StageDesigner  = "designer"
	StageArchitect = "architect"
	StageCoder     = "coder"
	StageReviewer  = "reviewer"
)

// Artifact names produced by the stages.
const (
	ArtifactDesignAnalysis = "design-analysis"
	ArtifactArchitecture   = "architecture"
	ArtifactFiles          = "files"
	ArtifactReview         = "review"
)

// Descriptor declares one stage: its name, the artifacts it consumes, and
// the artifact it produces.
type Descriptor struct {
	Name     string
	Needs    []string
	Produces string
}

// Stages is the fixed stage order. The descriptor list is what the runner
// validates and iterates; the order here is the only order stages run in.
var Stages = []Descriptor{
	{Name: StageDesigner, Needs: nil, Produces: ArtifactDesignAnalysis},
	{Name: StageArchitect, Needs: []string{ArtifactDesignAnalysis}, Produces: ArtifactArchitecture},
	{Name: StageCoder, Needs: []string{ArtifactDesignAnalysis, ArtifactArchitecture}, Produces: ArtifactFiles},
	{Name: StageReviewer, Needs: []string{ArtifactFiles, ArtifactDesignAnalysis}, Produces: ArtifactReview},
}

// ValidateStages checks that every stage's needs are produced by an earlier
// stage and that no artifact is produced twice.
func ValidateStages(stages []Descriptor) error {
	if len(stages) == 0 {
		return fmt.Errorf("pipeline must define at least one stage")
	}

	produced := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, stage := range stages {
		if stage.Name == "" {
			return fmt.Errorf("stage name is required")
		}
		if _, ok := seen[stage.Name]; ok {
			return fmt.Errorf("duplicate stage name: %s", stage.Name)
		}
		seen[stage.Name] = struct{}{}

		for _, need := range stage.Needs {
			if _, ok := produced[need]; !ok {
				return fmt.Errorf("stage %s needs artifact %q before any stage produces it", stage.Name, need)
			}
		}

		if stage.Produces == "" {
			return fmt.Errorf("stage %s must produce an artifact", stage.Name)
		}
		if _, ok := produced[stage.Produces]; ok {
			return fmt.Errorf("artifact %q produced twice", stage.Produces)
		}
		produced[stage.Produces] = struct{}{}
	}

	return nil
}
