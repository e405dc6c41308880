package driver

import (
	"context"

	"decoport/internal/config"
	"decoport/internal/rewrite"
	"decoport/internal/source"
)

// ConvertBytes converts one source text without touching the filesystem:
// the simple-mode core and the library entry point. The result is encoded
// back to the unit's original codec; input whose decorator sites already
// conform is returned byte-identical.
func ConvertBytes(ctx context.Context, cfg *config.Config, name string, raw []byte) ([]byte, error) {
	unit, err := source.NewVirtual(name, raw, source.Options{
		Linesep:       cfg.Linesep,
		Indentation:   cfg.Indentation,
		SourceVersion: cfg.SourceVersion,
	})
	if err != nil {
		return nil, err
	}

	plan, err := planUnit(ctx, unit, cfg, nil)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return raw, nil
	}

	converted, err := rewrite.Apply(unit.Text, plan)
	if err != nil {
		return nil, err
	}
	if err := verifyConverted(ctx, unit, converted); err != nil {
		return nil, err
	}
	return source.Encode(converted, unit.Encoding, unit.HadBOM)
}
