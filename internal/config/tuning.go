package config

import (
	"fmt"
	"log"

	"github.com/BurntSushi/toml"
	"github.com/pongarena/backend/internal/game"
)

// GameTuning is the optional physics file. Missing keys keep their defaults.
type GameTuning struct {
	TwoPlayer  game.Tuning           `toml:"two_player"`
	FourPlayer game.FourPlayerTuning `toml:"four_player"`
	AI         game.AIConfig         `toml:"ai"`
}

func DefaultGameTuning() GameTuning {
	return GameTuning{
		TwoPlayer:  game.DefaultTuning(),
		FourPlayer: game.DefaultFourPlayerTuning(),
		AI:         game.DefaultAIConfig(),
	}
}

// LoadTuning decodes a TOML tuning file over the defaults. An empty path returns the defaults.
func LoadTuning(path string) (GameTuning, error) {
	t := DefaultGameTuning()
	if path == "" {
		return t, nil
	}
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return GameTuning{}, fmt.Errorf("failed to decode tuning file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("[CONFIG] Ignoring unknown tuning key %q in %s", key.String(), path)
	}
	if err := game.ValidateTuning(t.TwoPlayer, t.FourPlayer); err != nil {
		return GameTuning{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	log.Printf("[CONFIG] Loaded game tuning from %s", path)
	return t, nil
}

// Apply copies the env overrides onto the file values.
func (t GameTuning) Apply(cfg *Config) GameTuning {
	if cfg.AIRefresh > 0 {
		t.AI.RefreshInterval = cfg.AIRefresh
	}
	return t
}
