package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Run drives every stage in order, the same sequence the CI stages invoke
// individually. The first failing stage aborts; its state is already
// persisted, so a re-run resumes from the persisted baseline.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"keygen", p.GenerateKeys},
		{"discovery", p.Discover},
		{"ha-interfaces", p.ConfigureHAInterfaces},
		{"ha-config", p.ConfigureHA},
		{"identify-active", p.IdentifyActive},
		{"configure", p.ConfigureNetwork},
		{"commit", p.CommitAndSync},
	}
	for _, stage := range stages {
		log.Info().Str("stage", stage.name).Msg("stage starting")
		if err := stage.fn(ctx); err != nil {
			return errors.Wrapf(err, "stage %s", stage.name)
		}
		log.Info().Str("stage", stage.name).Msg("stage completed")
	}
	return nil
}
