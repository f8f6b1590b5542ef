package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

const defaultMaxPlies = 200

// Config controls a match
type Config struct {
	Games    int
	MaxPlies int    // games reaching this many plies are adjudicated drawn; 0 means 200
	StartFEN string // empty means the standard layout
}

// Score counts results from the first player's point of view
type Score struct {
	Wins   int
	Draws  int
	Losses int
}

func (s Score) String() string {
	return fmt.Sprintf("+%d =%d -%d", s.Wins, s.Draws, s.Losses)
}

// Games returns the number of finished games
func (s Score) Games() int {
	return s.Wins + s.Draws + s.Losses
}

type newGamer interface {
	NewGame() error
}

// Run plays cfg.Games games between p and opp, alternating colors with p
// taking white first
func Run(ctx context.Context, p, opp Player, cfg Config, logger zerolog.Logger) (Score, error) {
	var score Score

	for i := range cfg.Games {
		if err := ctx.Err(); err != nil {
			return score, err
		}

		for _, pl := range []Player{p, opp} {
			if ng, ok := pl.(newGamer); ok {
				if err := ng.NewGame(); err != nil {
					return score, fmt.Errorf("game %d: %s: %w", i+1, pl.Name(), err)
				}
			}
		}

		white, black, pColor := p, opp, chess.White
		if i%2 == 1 {
			white, black, pColor = opp, p, chess.Black
		}

		g, err := PlayGame(ctx, white, black, cfg)
		if err != nil {
			return score, fmt.Errorf("game %d: %w", i+1, err)
		}

		switch winner(g.Outcome()) {
		case pColor:
			score.Wins++
		case chess.NoColor:
			score.Draws++
		default:
			score.Losses++
		}

		logger.Info().
			Int("game", i+1).
			Str("white", white.Name()).
			Str("black", black.Name()).
			Str("outcome", g.Outcome().String()).
			Str("method", g.Method().String()).
			Int("plies", len(g.Moves())).
			Str("score", score.String()).
			Msg("game finished")
	}

	return score, nil
}

// PlayGame plays one game to completion or adjudication
func PlayGame(ctx context.Context, white, black Player, cfg Config) (*chess.Game, error) {
	var opts []func(*chess.Game)
	if cfg.StartFEN != "" {
		fen, err := chess.FEN(cfg.StartFEN)
		if err != nil {
			return nil, fmt.Errorf("start position: %w", err)
		}
		opts = append(opts, fen)
	}
	g := chess.NewGame(opts...)

	maxPlies := cfg.MaxPlies
	if maxPlies <= 0 {
		maxPlies = defaultMaxPlies
	}

	for plies := 0; g.Outcome() == chess.NoOutcome; plies++ {
		if plies >= maxPlies {
			if err := g.Draw(chess.DrawOffer); err != nil {
				return nil, err
			}
			break
		}

		mover := white
		if g.Position().Turn() == chess.Black {
			mover = black
		}

		m, err := mover.BestMove(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mover.Name(), err)
		}
		if m == nil {
			return nil, errors.New(mover.Name() + ": no move returned")
		}
		if err := g.Move(m); err != nil {
			return nil, fmt.Errorf("%s played %s: %w", mover.Name(), m, err)
		}
	}

	return g, nil
}

func winner(o chess.Outcome) chess.Color {
	switch o {
	case chess.WhiteWon:
		return chess.White
	case chess.BlackWon:
		return chess.Black
	default:
		return chess.NoColor
	}
}
