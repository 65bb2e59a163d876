package config

import (
	"fmt"

	"github.com/indigo-web/simplehttp/handler"
	"github.com/indigo-web/simplehttp/handler/inspect"
	"github.com/indigo-web/simplehttp/handler/static"
	"github.com/mitchellh/mapstructure"
)

// CreateHandler builds the handler selected by cfg.Type, decoding cfg.Options
// into the options of that handler.
func CreateHandler(cfg Handler) (handler.Handler, error) {
	switch cfg.Type {
	case "static":
		var opts static.Options
		if err := decodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode static handler options: %w", err)
		}

		return static.New(cfg.Public, opts)
	case "inspect":
		var opts inspect.Options
		if err := decodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode inspect handler options: %w", err)
		}

		return inspect.New(cfg.Public, opts), nil
	default:
		return nil, fmt.Errorf("unknown handler type: %q", cfg.Type)
	}
}

// decodeOptions fails on keys the options struct doesn't have, so typos in the
// config don't pass silently.
func decodeOptions(options map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(options)
}
