package api

import (
	"context"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
)

// ConstantsSource supplies the constants table and material catalog.
// *sqlite.Store implements it; StaticSource serves tables loaded from
// the config file.
type ConstantsSource interface {
	Constants(ctx context.Context) (engine.Constants, error)
	Materials(ctx context.Context) ([]materials.Material, error)
}

// Pinger is implemented by sources that sit on a connection, such as
// *sqlite.Store. /readyz checks it before loading constants.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StaticSource is an in-memory ConstantsSource. Its tables are never
// modified after construction.
type StaticSource struct {
	constants engine.Constants
	materials []materials.Material
}

// NewStaticSource wraps already-validated tables.
func NewStaticSource(c engine.Constants, mats []materials.Material) *StaticSource {
	return &StaticSource{constants: c, materials: mats}
}

func (s *StaticSource) Constants(context.Context) (engine.Constants, error) {
	return s.constants, nil
}

func (s *StaticSource) Materials(context.Context) ([]materials.Material, error) {
	out := make([]materials.Material, len(s.materials))
	copy(out, s.materials)
	return out, nil
}
