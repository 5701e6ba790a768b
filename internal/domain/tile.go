package domain

// HandSize is the standard American Mahjong starting hand.
const HandSize = 13

// CharlestonPassSize is the number of tiles exchanged per Charleston pass.
const CharlestonPassSize = 3

// TotalTiles is the full American Mahjong set, jokers included.
const TotalTiles = 152

// Tile identifies a single physical tile. The id is unique within a set so
// duplicate suit/value tiles can still be told apart.
type Tile struct {
	ID    string `json:"id"`
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// IsValid reports whether the tile is structurally complete.
func (t Tile) IsValid() bool {
	return t.ID != "" && t.Suit != "" && t.Value != ""
}

// Matches reports identity equality on id, suit and value.
func (t Tile) Matches(other Tile) bool {
	return t.ID == other.ID && t.Suit == other.Suit && t.Value == other.Value
}

// ValidTiles reports whether every tile in the slice is structurally valid.
func ValidTiles(tiles []Tile) bool {
	for _, t := range tiles {
		if !t.IsValid() {
			return false
		}
	}
	return true
}
