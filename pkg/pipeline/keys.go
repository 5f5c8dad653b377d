package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GenerateKeys authenticates against every device in the device file and
// persists the sessions with their API keys. Any device failing keygen
// fails the stage: nothing downstream can work with a partial pair.
func (p *Pipeline) GenerateKeys(ctx context.Context) error {
	devices, err := LoadDeviceFile(p.settings.DevicesFile)
	if err != nil {
		return err
	}
	log.Info().Int("devices", len(devices)).Msg("generating API keys")

	keys := KeysState{}
	for _, device := range devices {
		client := p.newClient(device)
		key, err := client.GenerateAPIKey(ctx)
		if err != nil {
			return errors.Wrapf(err, "keygen for %s", device.Host)
		}
		keys.Devices = append(keys.Devices, device.WithAPIKey(key))
	}
	if err := p.store.Save(StageAPIKeys, keys); err != nil {
		return err
	}
	log.Info().Int("devices", len(keys.Devices)).Msg("API keys generated")
	return nil
}
