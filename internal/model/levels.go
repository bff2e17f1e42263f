package model

import "time"

// Direction compares a price with the same field of the previous bar.
type Direction string

const (
	DirectionUnknown Direction = "UNKNOWN"
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionFlat    Direction = "FLAT"
)

// Level is one price field of the readout.
type Level struct {
	Label     string // O, H, L, C
	Price     float64
	Direction Direction
}

// Levels is the open/high/low/close readout for the latest or hovered bar.
type Levels struct {
	Symbol string
	Index  int
	Time   time.Time
	Open   Level
	High   Level
	Low    Level
	Close  Level
}

// All returns the four levels in display order.
func (l Levels) All() []Level {
	return []Level{l.Open, l.High, l.Low, l.Close}
}

// LevelsAt builds the readout for the bar at index. Directions are
// DirectionUnknown at index 0 since there is no prior bar to compare with.
func LevelsAt(s *Series, index int) (Levels, error) {
	cur, err := s.At(index)
	if err != nil {
		return Levels{}, err
	}
	prev, prevErr := s.At(index - 1)
	dir := func(now, before float64) Direction {
		switch {
		case prevErr != nil:
			return DirectionUnknown
		case now > before:
			return DirectionUp
		case now < before:
			return DirectionDown
		default:
			return DirectionFlat
		}
	}
	return Levels{
		Symbol: s.Symbol,
		Index:  index,
		Time:   cur.Time,
		Open:   Level{Label: "O", Price: cur.Open, Direction: dir(cur.Open, prev.Open)},
		High:   Level{Label: "H", Price: cur.High, Direction: dir(cur.High, prev.High)},
		Low:    Level{Label: "L", Price: cur.Low, Direction: dir(cur.Low, prev.Low)},
		Close:  Level{Label: "C", Price: cur.Close, Direction: dir(cur.Close, prev.Close)},
	}, nil
}

// LatestLevels builds the readout for the last bar.
func LatestLevels(s *Series) (Levels, error) {
	return LevelsAt(s, s.Len()-1)
}
