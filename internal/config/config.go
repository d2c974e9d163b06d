// Package config loads the pool's collection policy from a CUE file and
// validates it against an embedded schema.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/termlab/termpool/internal/pool"
)

//go:embed schema.cue
var schemaCUE string

// Config is the validated pool policy. Fields mirror pool.Policy plus
// the automatic-collection flag.
type Config struct {
	CollectFloor     int     `json:"collect_floor"`
	GrowthFactor     float64 `json:"growth_factor"`
	CreationInterval int     `json:"creation_interval"`
	Shards           int     `json:"shards"`
	AutoCollect      bool    `json:"auto_collect"`
}

// Default returns the configuration matching pool.DefaultPolicy.
func Default() Config {
	def := pool.DefaultPolicy()
	return Config{
		CollectFloor:     def.CollectFloor,
		GrowthFactor:     def.GrowthFactor,
		CreationInterval: def.CreationInterval,
		Shards:           def.Shards,
		AutoCollect:      true,
	}
}

// Policy converts the configuration into a pool.Policy.
func (c Config) Policy() pool.Policy {
	return pool.Policy{
		CollectFloor:     c.CollectFloor,
		GrowthFactor:     c.GrowthFactor,
		CreationInterval: c.CreationInterval,
		Shards:           c.Shards,
	}
}

// Options returns the pool options expressed by the configuration.
func (c Config) Options() []pool.Option {
	return []pool.Option{
		pool.WithPolicy(c.Policy()),
		pool.WithAutomaticCollection(c.AutoCollect),
	}
}

// Load reads a CUE policy file, unifies it with the #Config schema, and
// decodes it. Omitted fields take the schema defaults; out-of-range
// values fail validation with the CUE error text.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data, path)
}

// Parse validates and decodes CUE policy source. filename is used in
// error positions only.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("internal schema error: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return Config{}, fmt.Errorf("compiling policy: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validating policy: %w", err)
	}

	var c Config
	if err := unified.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decoding policy: %w", err)
	}
	return c, nil
}
