package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTeam means a supplied team name resolves to no registry entry
	ErrUnknownTeam = errors.New("unknown team")
	// ErrNoMatch means no existing game lies within the attach tolerance
	ErrNoMatch = errors.New("no matching game")
	// ErrDuplicateSnapshot means an equivalent snapshot was stored moments earlier
	ErrDuplicateSnapshot = errors.New("duplicate snapshot")
	// ErrStaleGameWrite means odds were offered for a completed game
	ErrStaleGameWrite = errors.New("game already completed")
	// ErrGameNotFound means a game id does not exist
	ErrGameNotFound = errors.New("game not found")
	// ErrSameTeam means both sides of a candidate resolve to one team
	ErrSameTeam = errors.New("both sides resolve to the same team")
	// ErrMissingStartTime means a creating candidate carries no start time
	ErrMissingStartTime = errors.New("missing start time")
)

// UnknownTeamError names the team string that failed to resolve
type UnknownTeamError struct {
	Name  string
	Sport string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %q for sport %s", e.Name, e.Sport)
}

// Is lets errors.Is(err, ErrUnknownTeam) match
func (e *UnknownTeamError) Is(target error) bool {
	return target == ErrUnknownTeam
}
