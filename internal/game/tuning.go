package game

import (
	"fmt"
	"math"
	"time"
)

// Tuning holds the two-player board geometry and ball physics.
type Tuning struct {
	BoardWidth     float64 `toml:"board_width" json:"board_width"`
	BoardHeight    float64 `toml:"board_height" json:"board_height"`
	PaddleWidth    float64 `toml:"paddle_width" json:"paddle_width"`
	PaddleHeight   float64 `toml:"paddle_height" json:"paddle_height"`
	PaddleMargin   float64 `toml:"paddle_margin" json:"paddle_margin"`
	PaddleSpeed    float64 `toml:"paddle_speed" json:"paddle_speed"`
	BallSize       float64 `toml:"ball_size" json:"ball_size"`
	ServeSpeed     float64 `toml:"serve_speed" json:"serve_speed"`
	ServeAngle     float64 `toml:"serve_angle_deg" json:"serve_angle_deg"`
	SpeedUp        float64 `toml:"speed_up" json:"speed_up"`
	MaxSpeed       float64 `toml:"max_speed" json:"max_speed"`
	MaxBounceAngle float64 `toml:"max_bounce_angle_deg" json:"max_bounce_angle_deg"`
	PushOut        float64 `toml:"push_out" json:"push_out"`
	WinningScore   int     `toml:"winning_score" json:"winning_score"`
}

// Winning score presets offered to players.
const (
	ShortGame    = 5
	StandardGame = 11
	LongGame     = 21
)

func DefaultTuning() Tuning {
	return Tuning{
		BoardWidth:     800,
		BoardHeight:    400,
		PaddleWidth:    10,
		PaddleHeight:   80,
		PaddleMargin:   10,
		PaddleSpeed:    6,
		BallSize:       10,
		ServeSpeed:     5,
		ServeAngle:     30,
		SpeedUp:        1.05,
		MaxSpeed:       15,
		MaxBounceAngle: 45,
		PushOut:        2,
		WinningScore:   ShortGame,
	}
}

func (t Tuning) validate() error {
	if t.WinningScore <= 0 {
		return ErrInvalidWinningScore
	}
	if t.BoardWidth <= 0 || t.BoardHeight <= 0 || t.PaddleHeight <= 0 || t.BallSize <= 0 ||
		t.PaddleHeight > t.BoardHeight || t.BallSize+2 > t.BoardHeight {
		return ErrInvalidBoard
	}
	return nil
}

func (t Tuning) hit() hitParams {
	return hitParams{
		speedUp:  t.SpeedUp,
		maxSpeed: t.MaxSpeed,
		maxAngle: t.MaxBounceAngle * math.Pi / 180,
	}
}

// FourPlayerTuning holds the square four-player board geometry and ball physics.
type FourPlayerTuning struct {
	BoardSize       float64 `toml:"board_size" json:"board_size"`
	PaddleLength    float64 `toml:"paddle_length" json:"paddle_length"`
	PaddleThickness float64 `toml:"paddle_thickness" json:"paddle_thickness"`
	PaddleSpeed     float64 `toml:"paddle_speed" json:"paddle_speed"`
	BallSize        float64 `toml:"ball_size" json:"ball_size"`
	ServeSpeed      float64 `toml:"serve_speed" json:"serve_speed"`
	SpeedUp         float64 `toml:"speed_up" json:"speed_up"`
	MaxSpeed        float64 `toml:"max_speed" json:"max_speed"`
	MaxBounceAngle  float64 `toml:"max_bounce_angle_deg" json:"max_bounce_angle_deg"`
	PushOut         float64 `toml:"push_out" json:"push_out"`
	Lives           int     `toml:"lives" json:"lives"`
}

func DefaultFourPlayerTuning() FourPlayerTuning {
	return FourPlayerTuning{
		BoardSize:       600,
		PaddleLength:    100,
		PaddleThickness: 10,
		PaddleSpeed:     8,
		BallSize:        10,
		ServeSpeed:      5,
		SpeedUp:         1.1,
		MaxSpeed:        10,
		MaxBounceAngle:  60,
		PushOut:         2,
		Lives:           3,
	}
}

func (t FourPlayerTuning) validate() error {
	if t.BoardSize <= 0 || t.PaddleLength <= 0 || t.PaddleLength > t.BoardSize || t.BallSize <= 0 || t.Lives <= 0 {
		return ErrInvalidBoard
	}
	return nil
}

// ValidateTuning checks both board configurations before they reach an engine.
func ValidateTuning(two Tuning, four FourPlayerTuning) error {
	if err := two.validate(); err != nil {
		return fmt.Errorf("two_player: %w", err)
	}
	if err := four.validate(); err != nil {
		return fmt.Errorf("four_player: %w", err)
	}
	return nil
}

func (t FourPlayerTuning) hit() hitParams {
	return hitParams{
		speedUp:  t.SpeedUp,
		maxSpeed: t.MaxSpeed,
		maxAngle: t.MaxBounceAngle * math.Pi / 180,
	}
}

// AIConfig controls the opponent's reaction delay and aim.
type AIConfig struct {
	RefreshInterval time.Duration `toml:"refresh_interval" json:"refresh_interval"`
	DeadZone        float64       `toml:"dead_zone" json:"dead_zone"`
	EasyError       float64       `toml:"easy_error" json:"easy_error"`
	CornerZone      float64       `toml:"corner_zone" json:"corner_zone"`
	CornerBias      float64       `toml:"corner_bias" json:"corner_bias"`
}

func DefaultAIConfig() AIConfig {
	return AIConfig{
		RefreshInterval: time.Second,
		DeadZone:        10,
		EasyError:       80,
		CornerZone:      0.25,
		CornerBias:      0.35,
	}
}
